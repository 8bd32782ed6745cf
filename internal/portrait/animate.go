package portrait

import (
	"context"
	"errors"
	"strings"

	"github.com/stashapp/stash/pkg/plugin/common/log"
)

// Orchestrator validates requests and dispatches them to the engine. It holds
// no per-request state; the hosting layer serialises calls that share one
// engine.
type Orchestrator struct {
	engine Engine
}

// NewOrchestrator creates an orchestrator bound to an engine
func NewOrchestrator(engine Engine) (*Orchestrator, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	return &Orchestrator{engine: engine}, nil
}

// Animate runs the full driving-animation workflow. The request's modality
// decides which source slot is used; an Unselected modality falls back to
// the image slot.
func (o *Orchestrator) Animate(ctx context.Context, req AnimationRequest) (AnimationResult, error) {
	params, err := req.engineParams()
	if err != nil {
		return AnimationResult{}, err
	}

	log.Infof("Animating %s source %s with driving video %s", params.SourceKind, params.SourcePath, params.DrivingPath)

	result, err := o.engine.Animate(ctx, params)
	if err != nil {
		return AnimationResult{}, engineFailure("animate", err)
	}
	if result.Video == "" || result.Concat == "" {
		return AnimationResult{}, engineFailure("animate", errNoOutput)
	}

	log.Debugf("Animation complete: video=%s concat=%s", result.Video, result.Concat)
	return result, nil
}

// engineParams resolves the source slot, validates the request and builds the
// engine call. Nothing here touches the engine.
func (r AnimationRequest) engineParams() (AnimateParams, error) {
	if strings.TrimSpace(r.DrivingVideo) == "" {
		return AnimateParams{}, &MissingInputError{Input: "driving video"}
	}

	params := AnimateParams{
		DrivingPath:       r.DrivingVideo,
		Relative:          r.Relative,
		DoCropSource:      r.DoCropSource,
		PasteBack:         r.PasteBack,
		Stitching:         r.Stitching,
		DrivingOption:     r.DrivingOption,
		DrivingMultiplier: r.DrivingMultiplier,
		CropDrivingVideo:  r.CropDrivingVideo,
		SourceCrop:        r.SourceCrop,
		DrivingCrop:       r.DrivingCrop,
	}

	switch r.Modality {
	case ModalityVideo:
		if strings.TrimSpace(r.SourceVideo) == "" {
			return AnimateParams{}, &MissingInputError{Input: "source video"}
		}
		params.SourceKind = SourceKindVideo
		params.SourcePath = r.SourceVideo
		params.RelativeHeadRotationV2V = r.RelativeHeadRotationV2V
		params.SmoothingVariance = r.SmoothingVariance
	default:
		if strings.TrimSpace(r.SourceImage) == "" {
			return AnimateParams{}, &MissingInputError{Input: "source image"}
		}
		params.SourceKind = SourceKindImage
		params.SourcePath = r.SourceImage
	}

	if err := r.Validate(); err != nil {
		return AnimateParams{}, err
	}
	return params, nil
}
