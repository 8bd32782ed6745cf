package config

// ArgumentConfig holds every process option. Its opt tags define the option
// keys accepted from the options file, flags and plugin settings.
type ArgumentConfig struct {
	// Server
	ServerPort int    `opt:"server_port" yaml:"server_port"`
	ServerName string `opt:"server_name" yaml:"server_name"`
	TempDir    string `opt:"gradio_temp_dir" yaml:"gradio_temp_dir"`

	// Engine
	EngineURL            string `opt:"engine_url" yaml:"engine_url"`
	EngineTimeoutSeconds int    `opt:"engine_timeout_seconds" yaml:"engine_timeout_seconds"`
	FFmpegDir            string `opt:"ffmpeg_dir" yaml:"ffmpeg_dir"`

	// Inference
	DeviceID             int     `opt:"device_id" yaml:"device_id"`
	FlagForceCPU         bool    `opt:"flag_force_cpu" yaml:"flag_force_cpu"`
	FlagUseHalfPrecision bool    `opt:"flag_use_half_precision" yaml:"flag_use_half_precision"`
	FlagDoTorchCompile   bool    `opt:"flag_do_torch_compile" yaml:"flag_do_torch_compile"`
	FlagNormalizeLip     bool    `opt:"flag_normalize_lip" yaml:"flag_normalize_lip"`
	FlagRelativeMotion   bool    `opt:"flag_relative_motion" yaml:"flag_relative_motion"`
	FlagPasteback        bool    `opt:"flag_pasteback" yaml:"flag_pasteback"`
	FlagStitching        bool    `opt:"flag_stitching" yaml:"flag_stitching"`
	FlagDoCrop           bool    `opt:"flag_do_crop" yaml:"flag_do_crop"`
	FlagCropDrivingVideo bool    `opt:"flag_crop_driving_video" yaml:"flag_crop_driving_video"`
	DrivingOption        string  `opt:"driving_option" yaml:"driving_option"`
	DrivingMultiplier    float64 `opt:"driving_multiplier" yaml:"driving_multiplier"`
	SmoothingVariance    float64 `opt:"driving_smooth_observation_variance" yaml:"driving_smooth_observation_variance"`

	// Crop
	DetThresh               float64 `opt:"det_thresh" yaml:"det_thresh"`
	Scale                   float64 `opt:"scale" yaml:"scale"`
	VxRatio                 float64 `opt:"vx_ratio" yaml:"vx_ratio"`
	VyRatio                 float64 `opt:"vy_ratio" yaml:"vy_ratio"`
	FlagDoRot               bool    `opt:"flag_do_rot" yaml:"flag_do_rot"`
	SourceMaxDim            int     `opt:"source_max_dim" yaml:"source_max_dim"`
	SourceDivision          int     `opt:"source_division" yaml:"source_division"`
	ScaleCropDrivingVideo   float64 `opt:"scale_crop_driving_video" yaml:"scale_crop_driving_video"`
	VxRatioCropDrivingVideo float64 `opt:"vx_ratio_crop_driving_video" yaml:"vx_ratio_crop_driving_video"`
	VyRatioCropDrivingVideo float64 `opt:"vy_ratio_crop_driving_video" yaml:"vy_ratio_crop_driving_video"`
}

// InferenceConfig is the engine's inference schema
type InferenceConfig struct {
	DeviceID             int     `opt:"device_id" json:"device_id"`
	FlagForceCPU         bool    `opt:"flag_force_cpu" json:"flag_force_cpu"`
	FlagUseHalfPrecision bool    `opt:"flag_use_half_precision" json:"flag_use_half_precision"`
	FlagDoTorchCompile   bool    `opt:"flag_do_torch_compile" json:"flag_do_torch_compile"`
	FlagNormalizeLip     bool    `opt:"flag_normalize_lip" json:"flag_normalize_lip"`
	FlagRelativeMotion   bool    `opt:"flag_relative_motion" json:"flag_relative_motion"`
	FlagPasteback        bool    `opt:"flag_pasteback" json:"flag_pasteback"`
	FlagStitching        bool    `opt:"flag_stitching" json:"flag_stitching"`
	FlagDoCrop           bool    `opt:"flag_do_crop" json:"flag_do_crop"`
	FlagCropDrivingVideo bool    `opt:"flag_crop_driving_video" json:"flag_crop_driving_video"`
	FlagDoRot            bool    `opt:"flag_do_rot" json:"flag_do_rot"`
	DrivingOption        string  `opt:"driving_option" json:"driving_option"`
	DrivingMultiplier    float64 `opt:"driving_multiplier" json:"driving_multiplier"`
	SmoothingVariance    float64 `opt:"driving_smooth_observation_variance" json:"driving_smooth_observation_variance"`
	SourceMaxDim         int     `opt:"source_max_dim" json:"source_max_dim"`
	SourceDivision       int     `opt:"source_division" json:"source_division"`
}

// CropConfig is the engine's face cropper schema. It shares device and
// source keys with InferenceConfig.
type CropConfig struct {
	DeviceID                int     `opt:"device_id" json:"device_id"`
	FlagForceCPU            bool    `opt:"flag_force_cpu" json:"flag_force_cpu"`
	DetThresh               float64 `opt:"det_thresh" json:"det_thresh"`
	Scale                   float64 `opt:"scale" json:"scale"`
	VxRatio                 float64 `opt:"vx_ratio" json:"vx_ratio"`
	VyRatio                 float64 `opt:"vy_ratio" json:"vy_ratio"`
	FlagDoRot               bool    `opt:"flag_do_rot" json:"flag_do_rot"`
	SourceMaxDim            int     `opt:"source_max_dim" json:"source_max_dim"`
	SourceDivision          int     `opt:"source_division" json:"source_division"`
	ScaleCropDrivingVideo   float64 `opt:"scale_crop_driving_video" json:"scale_crop_driving_video"`
	VxRatioCropDrivingVideo float64 `opt:"vx_ratio_crop_driving_video" json:"vx_ratio_crop_driving_video"`
	VyRatioCropDrivingVideo float64 `opt:"vy_ratio_crop_driving_video" json:"vy_ratio_crop_driving_video"`
}

// ServerConfig is what the hosts need to run
type ServerConfig struct {
	Port                 int    `opt:"server_port"`
	Host                 string `opt:"server_name"`
	TempDir              string `opt:"gradio_temp_dir"`
	EngineURL            string `opt:"engine_url"`
	EngineTimeoutSeconds int    `opt:"engine_timeout_seconds"`
	FFmpegDir            string `opt:"ffmpeg_dir"`
	SourceMaxDim         int    `opt:"source_max_dim"`
}

// Config is the fully resolved configuration shared by both hosts
type Config struct {
	Server    ServerConfig
	Inference InferenceConfig
	Crop      CropConfig
}
