package rpc

import (
	"context"
	"fmt"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
	"github.com/smegmarip/stash-portrait-plugin/internal/stash"
)

const (
	defaultImageRetargetScale = 2.5
	defaultVideoRetargetScale = 2.3
	defaultVideoSmoothing     = 3e-6
)

// animate runs a driving animation. Source assets are given either as file
// paths or as Stash image/scene IDs.
func (s *Service) animate(ctx context.Context, args Args) (interface{}, error) {
	req := s.config.AnimationDefaults()

	selector := portrait.NewModalitySelector()
	if name := args.String("tab", ""); name != "" {
		tab, err := portrait.ParseTab(name)
		if err != nil {
			return nil, err
		}
		selector.SelectTab(tab)
	}
	req.Modality = selector.Snapshot()

	var err error
	if req.SourceImage, err = s.assetPath(ctx, args, "sourceImage", "sourceImageId", stash.AssetImage); err != nil {
		return nil, err
	}
	if req.SourceVideo, err = s.assetPath(ctx, args, "sourceVideo", "sourceSceneId", stash.AssetScene); err != nil {
		return nil, err
	}
	if req.DrivingVideo, err = s.assetPath(ctx, args, "drivingVideo", "drivingSceneId", stash.AssetScene); err != nil {
		return nil, err
	}
	if err := parseAnimationArgs(args, &req); err != nil {
		return nil, err
	}

	result, err := s.orchestrator.Animate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.session.Update(func(c *portrait.Controls) {
		c.SourceImage, c.SourceVideo, c.DrivingVideo = req.SourceImage, req.SourceVideo, req.DrivingVideo
		c.Video, c.ConcatVideo = result.Video, result.Concat
	})
	return AnimateResponse{Modality: req.Modality.String(), Result: result}, nil
}

func parseAnimationArgs(args Args, req *portrait.AnimationRequest) error {
	bools := []struct {
		key string
		dst *bool
	}{
		{"relativeMotion", &req.Relative},
		{"doCrop", &req.DoCropSource},
		{"pasteback", &req.PasteBack},
		{"stitching", &req.Stitching},
		{"cropDrivingVideo", &req.CropDrivingVideo},
		{"relativeHeadRotation", &req.RelativeHeadRotationV2V},
	}
	for _, b := range bools {
		if err := args.boolField(b.key, b.dst); err != nil {
			return err
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"drivingMultiplier", &req.DrivingMultiplier},
		{"smoothingVariance", &req.SmoothingVariance},
		{"sourceScale", &req.SourceCrop.Scale},
		{"sourceVxRatio", &req.SourceCrop.VxRatio},
		{"sourceVyRatio", &req.SourceCrop.VyRatio},
		{"drivingScale", &req.DrivingCrop.Scale},
		{"drivingVxRatio", &req.DrivingCrop.VxRatio},
		{"drivingVyRatio", &req.DrivingCrop.VyRatio},
	}
	for _, f := range floats {
		if err := args.floatField(f.key, f.dst); err != nil {
			return err
		}
	}

	req.DrivingOption = portrait.DrivingOption(args.String("drivingOption", string(req.DrivingOption)))
	return nil
}

// initRetargeting measures the baseline eye/lip openness of a source image
func (s *Service) initRetargeting(ctx context.Context, args Args) (interface{}, error) {
	path, err := s.assetPath(ctx, args, "sourceImage", "sourceImageId", stash.AssetImage)
	if err != nil {
		return nil, err
	}
	scale, err := args.Float("scale", defaultImageRetargetScale)
	if err != nil {
		return nil, err
	}

	baseline, err := s.orchestrator.InitFromImage(ctx, path, scale)
	if err != nil {
		return nil, err
	}

	s.session.Update(func(c *portrait.Controls) {
		c.RetargetingImage, c.RetargetingScale = path, scale
		c.EyeRatio, c.LipRatio = baseline.EyeRatio, baseline.LipRatio
	})
	return BaselineResponse{Baseline: baseline}, nil
}

// retargetImage edits expression and head pose of a still image. Eye and
// lip ratios not given follow the source's baseline, measured again
// whenever the source differs from the previous task's.
func (s *Service) retargetImage(ctx context.Context, args Args) (interface{}, error) {
	params := portrait.ImageRetargeting{CropScale: defaultImageRetargetScale, DoCrop: true}

	var err error
	if params.SourceImagePath, err = s.assetPath(ctx, args, "sourceImage", "sourceImageId", stash.AssetImage); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*float64{
		"pitch": &params.Pitch,
		"yaw":   &params.Yaw,
		"roll":  &params.Roll,
		"scale": &params.CropScale,
	} {
		if err := args.floatField(key, dst); err != nil {
			return nil, err
		}
	}
	if err := args.boolField("doCrop", &params.DoCrop); err != nil {
		return nil, err
	}
	eye, err := args.optionalFloat("eyeRatio")
	if err != nil {
		return nil, err
	}
	lip, err := args.optionalFloat("lipRatio")
	if err != nil {
		return nil, err
	}

	prev := s.session.Controls()
	params.EyeRatio, params.LipRatio = prev.EyeRatio, prev.LipRatio
	if params.SourceImagePath != "" && params.SourceImagePath != prev.RetargetingImage {
		baseline, err := s.orchestrator.InitFromImage(ctx, params.SourceImagePath, params.CropScale)
		if err != nil {
			return nil, err
		}
		params.EyeRatio, params.LipRatio = baseline.EyeRatio, baseline.LipRatio
	}
	if eye != nil {
		params.EyeRatio = *eye
	}
	if lip != nil {
		params.LipRatio = *lip
	}

	result, err := s.orchestrator.RetargetImage(ctx, params)
	if err != nil {
		return nil, err
	}

	s.session.Update(func(c *portrait.Controls) {
		c.RetargetingImage, c.RetargetingScale = params.SourceImagePath, params.CropScale
		c.EyeRatio, c.LipRatio = params.EyeRatio, params.LipRatio
		c.HeadPitch, c.HeadYaw, c.HeadRoll = params.Pitch, params.Yaw, params.Roll
		c.RetargetedImage, c.PasteBackImage = result.Retargeted, result.PasteBack
	})
	return RetargetResponse{Result: result}, nil
}

// retargetVideo edits lip openness across a source video
func (s *Service) retargetVideo(ctx context.Context, args Args) (interface{}, error) {
	params := portrait.VideoRetargeting{
		CropScale:         defaultVideoRetargetScale,
		SmoothingVariance: defaultVideoSmoothing,
		DoCrop:            true,
	}

	var err error
	if params.SourceVideoPath, err = s.assetPath(ctx, args, "sourceVideo", "sourceSceneId", stash.AssetScene); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*float64{
		"lipRatio":          &params.LipRatio,
		"scale":             &params.CropScale,
		"smoothingVariance": &params.SmoothingVariance,
	} {
		if err := args.floatField(key, dst); err != nil {
			return nil, err
		}
	}
	if err := args.boolField("doCrop", &params.DoCrop); err != nil {
		return nil, err
	}

	result, err := s.orchestrator.RetargetVideo(ctx, params)
	if err != nil {
		return nil, err
	}

	s.session.Update(func(c *portrait.Controls) {
		c.RetargetingVideo, c.VideoRetargetingScale = params.SourceVideoPath, params.CropScale
		c.VideoLipRatio = params.LipRatio
		c.RetargetedVideo, c.PasteBackVideo = result.Retargeted, result.PasteBack
	})
	return RetargetResponse{Result: result}, nil
}

// resetGroup restores one control group to its defaults
func (s *Service) resetGroup(ctx context.Context, args Args) (interface{}, error) {
	id := portrait.ResetGroupID(args.String("group", ""))
	defaults, err := portrait.ResetGroup(id)
	if err != nil {
		return nil, err
	}
	controls, err := s.session.Apply(defaults)
	if err != nil {
		return nil, err
	}
	log.Debugf("Reset group %s (%d controls)", id, len(defaults))
	return ResetResponse{Group: id, Defaults: defaults, Controls: controls}, nil
}

// assetPath reads an asset given as a file path, or as a Stash object ID
// resolved to its file. Neither present yields an empty path.
func (s *Service) assetPath(ctx context.Context, args Args, pathKey, idKey string, kind stash.AssetKind) (string, error) {
	if path := args.String(pathKey, ""); path != "" {
		return path, nil
	}
	id, ok := args.ID(idKey)
	if !ok {
		return "", nil
	}
	if s.resolver == nil {
		return "", fmt.Errorf("cannot resolve %s %s without a Stash connection", kind, id)
	}
	path, err := s.resolver.Path(ctx, kind, id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s %s: %w", kind, id, err)
	}
	return path, nil
}
