package httpapi

import (
	"context"
	"net/http"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

const defaultVideoSmoothing = 3e-6

type sessionResponse struct {
	ID       string            `json:"id"`
	Modality string            `json:"modality"`
	Controls portrait.Controls `json:"controls"`
}

type animateBody struct {
	SourceImage  *string `json:"source_image"`
	SourceVideo  *string `json:"source_video"`
	DrivingVideo *string `json:"driving_video"`

	Relative                *bool    `json:"flag_relative_motion"`
	DoCropSource            *bool    `json:"flag_do_crop"`
	PasteBack               *bool    `json:"flag_pasteback"`
	Stitching               *bool    `json:"flag_stitching"`
	DrivingOption           *string  `json:"driving_option"`
	DrivingMultiplier       *float64 `json:"driving_multiplier"`
	CropDrivingVideo        *bool    `json:"flag_crop_driving_video"`
	RelativeHeadRotationV2V *bool    `json:"flag_video_editing_head_rotation"`
	SmoothingVariance       *float64 `json:"driving_smooth_observation_variance"`

	Scale                   *float64 `json:"scale"`
	VxRatio                 *float64 `json:"vx_ratio"`
	VyRatio                 *float64 `json:"vy_ratio"`
	ScaleCropDrivingVideo   *float64 `json:"scale_crop_driving_video"`
	VxRatioCropDrivingVideo *float64 `json:"vx_ratio_crop_driving_video"`
	VyRatioCropDrivingVideo *float64 `json:"vy_ratio_crop_driving_video"`
}

type animateResponse struct {
	Modality string   `json:"modality"`
	Video    mediaRef `json:"video"`
	Concat   mediaRef `json:"concat"`
}

type retargetingSourceBody struct {
	SourceImage *string  `json:"source_image"`
	Scale       *float64 `json:"scale"`
}

type baselineResponse struct {
	Baseline portrait.Baseline `json:"baseline"`
	Controls portrait.Controls `json:"controls"`
}

type retargetImageBody struct {
	SourceImage *string  `json:"source_image"`
	EyeRatio    *float64 `json:"eye_ratio"`
	LipRatio    *float64 `json:"lip_ratio"`
	Pitch       *float64 `json:"head_pitch"`
	Yaw         *float64 `json:"head_yaw"`
	Roll        *float64 `json:"head_roll"`
	Scale       *float64 `json:"scale"`
	DoCrop      *bool    `json:"flag_do_crop"`
}

type retargetVideoBody struct {
	SourceVideo       *string  `json:"source_video"`
	LipRatio          *float64 `json:"lip_ratio"`
	Scale             *float64 `json:"scale"`
	SmoothingVariance *float64 `json:"driving_smooth_observation_variance"`
	DoCrop            *bool    `json:"flag_do_crop"`
}

type retargetResponse struct {
	Retargeted mediaRef `json:"retargeted"`
	PasteBack  mediaRef `json:"paste_back"`
}

type resetResponse struct {
	Group    portrait.ResetGroupID `json:"group"`
	Controls portrait.Controls     `json:"controls"`
}

//
// Sessions
//

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	checker, ok := s.engine.(HealthChecker)
	if !ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := checker.Health(ctx); err != nil {
		resp["status"] = "degraded"
		resp["engine"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp["engine"] = "ok"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Create()
	writeJSON(w, http.StatusCreated, describeSession(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describeSession(session))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	tab, err := portrait.ParseTab(r.PathValue("tab"))
	if err != nil {
		writeError(w, badRequest("%v", err))
		return
	}
	session.Modality.SelectTab(tab)
	writeJSON(w, http.StatusOK, describeSession(session))
}

func describeSession(session *portrait.Session) sessionResponse {
	return sessionResponse{
		ID:       session.ID,
		Modality: session.Modality.Snapshot().String(),
		Controls: session.Controls(),
	}
}

//
// Workflows
//

func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body animateBody
	if !readJSON(w, r, &body) {
		return
	}

	controls := session.Update(func(c *portrait.Controls) {
		setString(&c.SourceImage, body.SourceImage)
		setString(&c.SourceVideo, body.SourceVideo)
		setString(&c.DrivingVideo, body.DrivingVideo)
	})

	req := s.cfg.AnimationDefaults()
	req.Modality = session.Modality.Snapshot()
	for _, asset := range []struct {
		handle string
		dst    *string
	}{
		{controls.SourceImage, &req.SourceImage},
		{controls.SourceVideo, &req.SourceVideo},
		{controls.DrivingVideo, &req.DrivingVideo},
	} {
		if *asset.dst, err = s.assetPath(asset.handle); err != nil {
			writeError(w, err)
			return
		}
	}
	body.apply(&req)

	s.engineMu.Lock()
	result, err := s.orchestrator.Animate(r.Context(), req)
	s.engineMu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	video, concat := s.mediaRef(result.Video), s.mediaRef(result.Concat)
	session.Update(func(c *portrait.Controls) {
		c.Video, c.ConcatVideo = video.key(), concat.key()
	})
	writeJSON(w, http.StatusOK, animateResponse{
		Modality: req.Modality.String(),
		Video:    video,
		Concat:   concat,
	})
}

func (b animateBody) apply(req *portrait.AnimationRequest) {
	setBool(&req.Relative, b.Relative)
	setBool(&req.DoCropSource, b.DoCropSource)
	setBool(&req.PasteBack, b.PasteBack)
	setBool(&req.Stitching, b.Stitching)
	setBool(&req.CropDrivingVideo, b.CropDrivingVideo)
	setBool(&req.RelativeHeadRotationV2V, b.RelativeHeadRotationV2V)
	if b.DrivingOption != nil {
		req.DrivingOption = portrait.DrivingOption(*b.DrivingOption)
	}
	setFloat(&req.DrivingMultiplier, b.DrivingMultiplier)
	setFloat(&req.SmoothingVariance, b.SmoothingVariance)
	setFloat(&req.SourceCrop.Scale, b.Scale)
	setFloat(&req.SourceCrop.VxRatio, b.VxRatio)
	setFloat(&req.SourceCrop.VyRatio, b.VyRatio)
	setFloat(&req.DrivingCrop.Scale, b.ScaleCropDrivingVideo)
	setFloat(&req.DrivingCrop.VxRatio, b.VxRatioCropDrivingVideo)
	setFloat(&req.DrivingCrop.VyRatio, b.VyRatioCropDrivingVideo)
}

// handleRetargetingSource runs when the retargeting source image changes and
// returns the baseline the eye and lip sliders snap to
func (s *Server) handleRetargetingSource(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body retargetingSourceBody
	if !readJSON(w, r, &body) {
		return
	}

	controls := session.Update(func(c *portrait.Controls) {
		setString(&c.RetargetingImage, body.SourceImage)
		setFloat(&c.RetargetingScale, body.Scale)
	})
	path, err := s.assetPath(controls.RetargetingImage)
	if err != nil {
		writeError(w, err)
		return
	}

	s.engineMu.Lock()
	baseline, err := s.orchestrator.InitFromImage(r.Context(), path, controls.RetargetingScale)
	s.engineMu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	controls = session.Update(func(c *portrait.Controls) {
		c.EyeRatio, c.LipRatio = baseline.EyeRatio, baseline.LipRatio
	})
	writeJSON(w, http.StatusOK, baselineResponse{Baseline: baseline, Controls: controls})
}

func (s *Server) handleRetargetImage(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	body := retargetImageBody{}
	if !readJSON(w, r, &body) {
		return
	}

	// A new source re-seeds the eye and lip sliders before any body overrides
	var baseline *portrait.Baseline
	if prev := session.Controls(); body.SourceImage != nil && *body.SourceImage != prev.RetargetingImage {
		scale := prev.RetargetingScale
		setFloat(&scale, body.Scale)
		path, err := s.assetPath(*body.SourceImage)
		if err != nil {
			writeError(w, err)
			return
		}
		s.engineMu.Lock()
		measured, err := s.orchestrator.InitFromImage(r.Context(), path, scale)
		s.engineMu.Unlock()
		if err != nil {
			writeError(w, err)
			return
		}
		baseline = &measured
	}

	controls := session.Update(func(c *portrait.Controls) {
		setString(&c.RetargetingImage, body.SourceImage)
		if baseline != nil {
			c.EyeRatio, c.LipRatio = baseline.EyeRatio, baseline.LipRatio
		}
		setFloat(&c.EyeRatio, body.EyeRatio)
		setFloat(&c.LipRatio, body.LipRatio)
		setFloat(&c.HeadPitch, body.Pitch)
		setFloat(&c.HeadYaw, body.Yaw)
		setFloat(&c.HeadRoll, body.Roll)
		setFloat(&c.RetargetingScale, body.Scale)
	})
	params := portrait.ImageRetargeting{
		EyeRatio:  controls.EyeRatio,
		LipRatio:  controls.LipRatio,
		Pitch:     controls.HeadPitch,
		Yaw:       controls.HeadYaw,
		Roll:      controls.HeadRoll,
		CropScale: controls.RetargetingScale,
		DoCrop:    true,
	}
	setBool(&params.DoCrop, body.DoCrop)
	if params.SourceImagePath, err = s.assetPath(controls.RetargetingImage); err != nil {
		writeError(w, err)
		return
	}

	s.engineMu.Lock()
	result, err := s.orchestrator.RetargetImage(r.Context(), params)
	s.engineMu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	retargeted, pasteBack := s.mediaRef(result.Retargeted), s.mediaRef(result.PasteBack)
	session.Update(func(c *portrait.Controls) {
		c.RetargetedImage, c.PasteBackImage = retargeted.key(), pasteBack.key()
	})
	writeJSON(w, http.StatusOK, retargetResponse{Retargeted: retargeted, PasteBack: pasteBack})
}

func (s *Server) handleRetargetVideo(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	body := retargetVideoBody{}
	if !readJSON(w, r, &body) {
		return
	}

	controls := session.Update(func(c *portrait.Controls) {
		setString(&c.RetargetingVideo, body.SourceVideo)
		setFloat(&c.VideoLipRatio, body.LipRatio)
		setFloat(&c.VideoRetargetingScale, body.Scale)
	})
	params := portrait.VideoRetargeting{
		LipRatio:          controls.VideoLipRatio,
		CropScale:         controls.VideoRetargetingScale,
		SmoothingVariance: defaultVideoSmoothing,
		DoCrop:            true,
	}
	setFloat(&params.SmoothingVariance, body.SmoothingVariance)
	setBool(&params.DoCrop, body.DoCrop)
	if params.SourceVideoPath, err = s.assetPath(controls.RetargetingVideo); err != nil {
		writeError(w, err)
		return
	}

	s.engineMu.Lock()
	result, err := s.orchestrator.RetargetVideo(r.Context(), params)
	s.engineMu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	retargeted, pasteBack := s.mediaRef(result.Retargeted), s.mediaRef(result.PasteBack)
	session.Update(func(c *portrait.Controls) {
		c.RetargetedVideo, c.PasteBackVideo = retargeted.key(), pasteBack.key()
	})
	writeJSON(w, http.StatusOK, retargetResponse{Retargeted: retargeted, PasteBack: pasteBack})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	group := portrait.ResetGroupID(r.PathValue("group"))
	defaults, err := portrait.ResetGroup(group)
	if err != nil {
		writeError(w, badRequest("%v", err))
		return
	}
	controls, err := session.Apply(defaults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Group: group, Controls: controls})
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
