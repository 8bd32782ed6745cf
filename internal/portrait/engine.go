package portrait

import "context"

// Engine is the inference engine boundary. Implementations are blocking: a
// call returns once the engine has produced its output or failed.
type Engine interface {
	Animate(ctx context.Context, params AnimateParams) (AnimationResult, error)
	InitRetargeting(ctx context.Context, sourceImagePath string, cropScale float64) (Baseline, error)
	RetargetImage(ctx context.Context, params ImageRetargeting) (RetargetResult, error)
	MeasureLipTrajectory(ctx context.Context, sourceVideoPath string, cropScale float64, doCrop bool) ([]float64, error)
	RetargetVideo(ctx context.Context, params VideoRetargetParams) (RetargetResult, error)
}

// SourceKind is the kind of source asset sent to the engine
type SourceKind string

const (
	SourceKindImage SourceKind = "image"
	SourceKindVideo SourceKind = "video"
)

// CropParams controls how a detected face box is cropped
type CropParams struct {
	Scale   float64 `json:"scale"`
	VxRatio float64 `json:"vx_ratio"`
	VyRatio float64 `json:"vy_ratio"`
}

// AnimateParams is the full driving-animation call sent to the engine
type AnimateParams struct {
	SourceKind              SourceKind    `json:"source_kind"`
	SourcePath              string        `json:"source_path"`
	DrivingPath             string        `json:"driving_path"`
	Relative                bool          `json:"flag_relative_motion"`
	DoCropSource            bool          `json:"flag_do_crop"`
	PasteBack               bool          `json:"flag_pasteback"`
	Stitching               bool          `json:"flag_stitching"`
	DrivingOption           DrivingOption `json:"driving_option"`
	DrivingMultiplier       float64       `json:"driving_multiplier"`
	CropDrivingVideo        bool          `json:"flag_crop_driving_video"`
	RelativeHeadRotationV2V bool          `json:"flag_video_editing_head_rotation"`
	SourceCrop              CropParams    `json:"source_crop"`
	DrivingCrop             CropParams    `json:"driving_crop"`
	SmoothingVariance       float64       `json:"driving_smooth_observation_variance"`
}

// AnimationResult holds the two animation outputs
type AnimationResult struct {
	Video  string `json:"video"`  // paste-back result in the source geometry
	Concat string `json:"concat"` // source and result side by side
}

// Baseline is the measured eye/lip openness of a retargeting source image
type Baseline struct {
	EyeRatio float64 `json:"eye_ratio"`
	LipRatio float64 `json:"lip_ratio"`
}

// ImageRetargeting is a still-image expression/pose retargeting call
type ImageRetargeting struct {
	EyeRatio        float64 `json:"eye_ratio"`
	LipRatio        float64 `json:"lip_ratio"`
	Pitch           float64 `json:"head_pitch"`
	Yaw             float64 `json:"head_yaw"`
	Roll            float64 `json:"head_roll"`
	SourceImagePath string  `json:"source_path"`
	CropScale       float64 `json:"scale"`
	DoCrop          bool    `json:"flag_do_crop"`
}

// VideoRetargeting is a per-frame lip retargeting call on a source video
type VideoRetargeting struct {
	LipRatio          float64 `json:"lip_ratio"`
	SourceVideoPath   string  `json:"source_path"`
	CropScale         float64 `json:"scale"`
	SmoothingVariance float64 `json:"driving_smooth_observation_variance"`
	DoCrop            bool    `json:"flag_do_crop"`
}

// VideoRetargetParams is a VideoRetargeting plus the smoothed per-frame lip
// edit trajectory to render
type VideoRetargetParams struct {
	VideoRetargeting
	LipDeltas []float64 `json:"lip_deltas"`
}

// RetargetResult holds a retargeted face and its paste-back composite
type RetargetResult struct {
	Retargeted string `json:"retargeted"`
	PasteBack  string `json:"paste_back"`
}
