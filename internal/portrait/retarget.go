package portrait

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/smoothing"
)

// ============================================================================
// Retargeting Workflows
// ============================================================================
//
// Image retargeting edits eye/lip openness and head pose of a still portrait.
// The eye/lip controls are seeded by InitFromImage with the measured openness
// of the bound source image, so edits start from the face's true state.
//
// Video retargeting edits lip openness on every frame of a source video and
// smooths the per-frame edit trajectory before rendering.
//
// ============================================================================

// InitFromImage measures the baseline eye/lip openness of a retargeting
// source image. An empty path yields a zero baseline without an engine call.
func (o *Orchestrator) InitFromImage(ctx context.Context, sourceImagePath string, cropScale float64) (Baseline, error) {
	if strings.TrimSpace(sourceImagePath) == "" {
		return Baseline{}, nil
	}
	if err := CropScaleBounds.Check("scale", cropScale); err != nil {
		return Baseline{}, err
	}

	baseline, err := o.engine.InitRetargeting(ctx, sourceImagePath, cropScale)
	if err != nil {
		return Baseline{}, engineFailure("init retargeting", err)
	}

	// Sliders move in 0.01 steps within [0, 0.8]
	baseline.EyeRatio = OpenRatioBounds.Clamp(roundRatio(baseline.EyeRatio))
	baseline.LipRatio = OpenRatioBounds.Clamp(roundRatio(baseline.LipRatio))

	log.Debugf("Retargeting baseline for %s: eye=%.2f lip=%.2f", sourceImagePath, baseline.EyeRatio, baseline.LipRatio)
	return baseline, nil
}

// RetargetImage renders the source portrait with the requested expression
// ratios and head-pose deltas. DoCrop only gates re-cropping of the source.
func (o *Orchestrator) RetargetImage(ctx context.Context, params ImageRetargeting) (RetargetResult, error) {
	if strings.TrimSpace(params.SourceImagePath) == "" {
		return RetargetResult{}, &MissingInputError{Input: "retargeting source image"}
	}
	if err := params.Validate(); err != nil {
		return RetargetResult{}, err
	}

	log.Infof("Retargeting image %s: eye=%.2f lip=%.2f pitch=%.0f yaw=%.0f roll=%.0f crop=%v",
		params.SourceImagePath, params.EyeRatio, params.LipRatio, params.Pitch, params.Yaw, params.Roll, params.DoCrop)

	result, err := o.engine.RetargetImage(ctx, params)
	if err != nil {
		return RetargetResult{}, engineFailure("retarget image", err)
	}
	if result.Retargeted == "" || result.PasteBack == "" {
		return RetargetResult{}, engineFailure("retarget image", errNoOutput)
	}
	return result, nil
}

// RetargetVideo applies a lip-openness target to every frame of the source
// video. The per-frame edit trajectory is smoothed with the requested
// variance: smaller values smooth more heavily.
func (o *Orchestrator) RetargetVideo(ctx context.Context, params VideoRetargeting) (RetargetResult, error) {
	if strings.TrimSpace(params.SourceVideoPath) == "" {
		return RetargetResult{}, &MissingInputError{Input: "retargeting source video"}
	}
	if err := params.Validate(); err != nil {
		return RetargetResult{}, err
	}

	measured, err := o.engine.MeasureLipTrajectory(ctx, params.SourceVideoPath, params.CropScale, params.DoCrop)
	if err != nil {
		return RetargetResult{}, engineFailure("measure lip trajectory", err)
	}
	if len(measured) == 0 {
		return RetargetResult{}, engineFailure("measure lip trajectory", errors.New("engine returned no frames"))
	}

	deltas := LipEditTrajectory(params.LipRatio, measured)
	smoothed := smoothing.Smooth(deltas, params.SmoothingVariance)

	log.Infof("Retargeting video %s: lip=%.2f frames=%d variance=%g jitter %.4f -> %.4f",
		params.SourceVideoPath, params.LipRatio, len(measured), params.SmoothingVariance,
		smoothing.TotalVariation(deltas), smoothing.TotalVariation(smoothed))

	result, err := o.engine.RetargetVideo(ctx, VideoRetargetParams{
		VideoRetargeting: params,
		LipDeltas:        smoothed,
	})
	if err != nil {
		return RetargetResult{}, engineFailure("retarget video", err)
	}
	if result.Retargeted == "" || result.PasteBack == "" {
		return RetargetResult{}, engineFailure("retarget video", errNoOutput)
	}
	return result, nil
}

// LipEditTrajectory converts measured per-frame lip openness into the
// per-frame edit needed to reach the target openness
func LipEditTrajectory(target float64, measured []float64) []float64 {
	deltas := make([]float64, len(measured))
	for i, m := range measured {
		deltas[i] = target - m
	}
	return deltas
}

func roundRatio(v float64) float64 {
	return math.Round(v*100) / 100
}
