package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

// CheckFFmpeg makes the optional bundled ffmpeg directory visible on PATH
// and verifies that both ffmpeg and ffprobe can be found
func CheckFFmpeg(dir string) error {
	if dir != "" {
		// exec.LookPath rejects binaries found through relative PATH entries
		abs, err := filepath.Abs(dir)
		if err != nil {
			return &portrait.EnvironmentError{Binary: "ffmpeg", Err: err}
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			path := os.Getenv("PATH")
			if !onPath(path, abs) {
				os.Setenv("PATH", path+string(os.PathListSeparator)+abs)
				log.Debugf("Added %s to PATH", abs)
			}
		}
	}

	for _, binary := range []string{"ffmpeg", "ffprobe"} {
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return &portrait.EnvironmentError{Binary: binary, Err: err}
		}
		log.Debugf("Found %s at %s", binary, resolved)
	}
	return nil
}

// onPath reports whether dir is one of the entries of a PATH value
func onPath(path, dir string) bool {
	for _, entry := range filepath.SplitList(path) {
		if entry != "" && filepath.Clean(entry) == dir {
			return true
		}
	}
	return false
}

// VideoInfo is the subset of ffprobe output used to validate uploads
type VideoInfo struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration"`
	Codec    string  `json:"codec"`
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeVideo reads stream metadata with ffprobe. A file without a video
// stream is rejected.
func ProbeVideo(ctx context.Context, path string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed on %s: %w", path, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		info := &VideoInfo{
			Width:  s.Width,
			Height: s.Height,
			FPS:    parseRate(s.AvgFrameRate),
			Codec:  s.CodecName,
		}
		info.Frames, _ = strconv.Atoi(s.NbFrames)
		info.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)

		log.Debugf("Probed %s: %dx%d %.2ffps %d frames codec=%s", path, info.Width, info.Height, info.FPS, info.Frames, info.Codec)
		return info, nil
	}
	return nil, fmt.Errorf("%s has no video stream", path)
}

// parseRate converts an ffprobe rational such as "30000/1001"
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
