package portrait

// Declared control bounds
var (
	CropScaleBounds         = Bounds{Min: 1.8, Max: 3.2}
	CropRatioBounds         = Bounds{Min: -0.5, Max: 0.5}
	SmoothingVarianceBounds = Bounds{Min: 1e-11, Max: 1e-2}
	DrivingMultiplierBounds = Bounds{Min: 0, Max: 2}
	OpenRatioBounds         = Bounds{Min: 0, Max: 0.8}
	PitchBounds             = Bounds{Min: -15, Max: 15}
	YawBounds               = Bounds{Min: -25, Max: 25}
	RollBounds              = Bounds{Min: -15, Max: 15}
)

// Bounds is a closed numeric interval
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the interval. NaN is never contained.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Clamp limits v to the interval
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Check returns an InvalidRangeError naming field when v is outside the interval
func (b Bounds) Check(field string, v float64) error {
	if !b.Contains(v) {
		return &InvalidRangeError{Field: field, Value: v, Min: b.Min, Max: b.Max}
	}
	return nil
}

// DrivingOption selects the image-to-video driving style
type DrivingOption string

const (
	DrivingExpressionFriendly DrivingOption = "expression-friendly"
	DrivingPoseFriendly       DrivingOption = "pose-friendly"
)

// DrivingOptions lists the accepted driving options
var DrivingOptions = []DrivingOption{DrivingExpressionFriendly, DrivingPoseFriendly}

// Valid reports whether o is a known driving option
func (o DrivingOption) Valid() bool {
	for _, known := range DrivingOptions {
		if o == known {
			return true
		}
	}
	return false
}

// AnimationRequest is built fresh for every animate call. It carries every
// control value, the modality snapshot and the asset handles.
type AnimationRequest struct {
	Modality Modality `json:"-"`

	SourceImage  string `json:"source_image,omitempty"`
	SourceVideo  string `json:"source_video,omitempty"`
	DrivingVideo string `json:"driving_video,omitempty"`

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

// DefaultAnimationRequest returns the initial control values of the
// animation panel
func DefaultAnimationRequest() AnimationRequest {
	return AnimationRequest{
		Relative:          true,
		DoCropSource:      true,
		PasteBack:         true,
		Stitching:         true,
		DrivingOption:     DrivingExpressionFriendly,
		DrivingMultiplier: 1.0,
		SourceCrop:        CropParams{Scale: 2.3, VxRatio: 0.0, VyRatio: -0.125},
		DrivingCrop:       CropParams{Scale: 2.2, VxRatio: 0.0, VyRatio: -0.1},
		SmoothingVariance: 3e-7,
	}
}

// Validate checks every numeric and enumerated field against its bounds
func (r AnimationRequest) Validate() error {
	checks := []struct {
		field  string
		value  float64
		bounds Bounds
	}{
		{"source_crop.scale", r.SourceCrop.Scale, CropScaleBounds},
		{"source_crop.vx_ratio", r.SourceCrop.VxRatio, CropRatioBounds},
		{"source_crop.vy_ratio", r.SourceCrop.VyRatio, CropRatioBounds},
		{"driving_crop.scale", r.DrivingCrop.Scale, CropScaleBounds},
		{"driving_crop.vx_ratio", r.DrivingCrop.VxRatio, CropRatioBounds},
		{"driving_crop.vy_ratio", r.DrivingCrop.VyRatio, CropRatioBounds},
		{"driving_multiplier", r.DrivingMultiplier, DrivingMultiplierBounds},
		{"driving_smooth_observation_variance", r.SmoothingVariance, SmoothingVarianceBounds},
	}
	for _, c := range checks {
		if err := c.bounds.Check(c.field, c.value); err != nil {
			return err
		}
	}

	if !r.DrivingOption.Valid() {
		allowed := make([]string, len(DrivingOptions))
		for i, o := range DrivingOptions {
			allowed[i] = string(o)
		}
		return &InvalidOptionError{Field: "driving_option", Value: string(r.DrivingOption), Allowed: allowed}
	}
	return nil
}

// Validate checks the image retargeting controls against their bounds
func (p ImageRetargeting) Validate() error {
	checks := []struct {
		field  string
		value  float64
		bounds Bounds
	}{
		{"eye_ratio", p.EyeRatio, OpenRatioBounds},
		{"lip_ratio", p.LipRatio, OpenRatioBounds},
		{"head_pitch", p.Pitch, PitchBounds},
		{"head_yaw", p.Yaw, YawBounds},
		{"head_roll", p.Roll, RollBounds},
		{"scale", p.CropScale, CropScaleBounds},
	}
	for _, c := range checks {
		if err := c.bounds.Check(c.field, c.value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the video retargeting controls against their bounds
func (p VideoRetargeting) Validate() error {
	if err := OpenRatioBounds.Check("lip_ratio", p.LipRatio); err != nil {
		return err
	}
	if err := CropScaleBounds.Check("scale", p.CropScale); err != nil {
		return err
	}
	return SmoothingVarianceBounds.Check("driving_smooth_observation_variance", p.SmoothingVariance)
}
