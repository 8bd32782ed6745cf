package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/media"
)

const multipartMemory = 32 << 20

// mediaRef points at a generated file. Files inside the media store are
// addressed by handle and served under /v1/media.
type mediaRef struct {
	Handle string `json:"handle,omitempty"`
	URL    string `json:"url,omitempty"`
	Path   string `json:"path,omitempty"`
}

func (m mediaRef) key() string {
	if m.Handle != "" {
		return m.Handle
	}
	return m.Path
}

func (s *Server) mediaRef(path string) mediaRef {
	if path == "" {
		return mediaRef{}
	}
	if handle, ok := s.store.Handle(path); ok {
		return mediaRef{Handle: handle, URL: "/v1/media/" + url.PathEscape(handle), Path: path}
	}
	return mediaRef{Path: path}
}

// assetPath resolves an uploaded asset handle. No handle means no asset.
func (s *Server) assetPath(handle string) (string, error) {
	if handle == "" {
		return "", nil
	}
	return s.store.Resolve(handle)
}

type uploadResponse struct {
	Handle   string           `json:"handle"`
	Original string           `json:"original"`
	Kind     media.Kind       `json:"kind"`
	URL      string           `json:"url"`
	Video    *media.VideoInfo `json:"video,omitempty"`
}

// handleUpload stores a multipart "file" upload. Images are normalised
// before use and videos must probe as a video stream.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, badRequest("invalid multipart upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, badRequest("missing file field: %v", err))
		return
	}
	defer file.Close()

	original, kind, err := s.store.SaveUpload(header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrUnsupported) {
			err = badRequest("%v", err)
		}
		writeError(w, err)
		return
	}

	resp := uploadResponse{Handle: original, Original: original, Kind: kind}
	switch kind {
	case media.KindImage:
		prepared, err := s.store.PrepareSourceImage(original, s.cfg.Inference.SourceMaxDim, s.cfg.Inference.SourceDivision)
		if err != nil {
			writeError(w, badRequest("invalid image: %v", err))
			return
		}
		resp.Handle = prepared
	case media.KindVideo:
		path, err := s.store.Resolve(original)
		if err != nil {
			writeError(w, err)
			return
		}
		if resp.Video, err = media.ProbeVideo(r.Context(), path); err != nil {
			writeError(w, badRequest("invalid video: %v", err))
			return
		}
	}
	resp.URL = "/v1/media/" + url.PathEscape(resp.Handle)

	log.Infof("Uploaded %s %s as %s", kind, header.Filename, resp.Handle)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	path, err := s.store.Resolve(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}
