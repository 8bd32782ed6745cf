package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/stashapp/stash/pkg/plugin/common/log"
	"gopkg.in/yaml.v3"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

const (
	defaultEngineContainer = "portrait-engine"
	defaultEnginePort      = "8000"
)

// DefaultArguments returns the built-in value of every option
func DefaultArguments() ArgumentConfig {
	return ArgumentConfig{
		ServerPort:           8890,
		ServerName:           "127.0.0.1",
		EngineTimeoutSeconds: 600,
		FFmpegDir:            "./ffmpeg",

		FlagUseHalfPrecision: true,
		FlagRelativeMotion:   true,
		FlagPasteback:        true,
		FlagStitching:        true,
		FlagDoCrop:           true,
		DrivingOption:        string(portrait.DrivingExpressionFriendly),
		DrivingMultiplier:    1.0,
		SmoothingVariance:    3e-7,

		DetThresh:               0.15,
		Scale:                   2.3,
		VxRatio:                 0,
		VyRatio:                 -0.125,
		FlagDoRot:               true,
		SourceMaxDim:            1280,
		SourceDivision:          2,
		ScaleCropDrivingVideo:   2.2,
		VxRatioCropDrivingVideo: 0,
		VyRatioCropDrivingVideo: -0.1,
	}
}

// Load resolves the configuration from option layers applied over the
// defaults, lowest priority first
func Load(layers ...map[string]interface{}) (*Config, error) {
	all := make([]map[string]interface{}, 0, len(layers)+1)
	all = append(all, Options(DefaultArguments()))
	all = append(all, layers...)
	ns := NewNamespace(all...)

	// Resolving the full argument schema surfaces every type error once
	if _, err := Resolve(ArgumentConfig{}, ns); err != nil {
		return nil, fmt.Errorf("failed to resolve arguments: %w", err)
	}

	server, err := Resolve(ServerConfig{}, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve server config: %w", err)
	}
	inference, err := Resolve(InferenceConfig{}, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inference config: %w", err)
	}
	crop, err := Resolve(CropConfig{}, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve crop config: %w", err)
	}

	server.EngineURL = resolveServiceURL(server.EngineURL, defaultEngineContainer, defaultEnginePort)

	cfg := &Config{Server: server, Inference: inference, Crop: crop}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debugf("Configuration: engine=%s timeout=%ds temp=%q device=%d cpu=%v",
		server.EngineURL, server.EngineTimeoutSeconds, server.TempDir, inference.DeviceID, inference.FlagForceCPU)
	return cfg, nil
}

// LoadOptionsFile reads a YAML options file into an option layer. An empty
// path yields an empty layer.
func LoadOptionsFile(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	layer := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return layer, nil
}

// Validate checks process-level constraints that the schemas cannot express
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server_port %d is out of range", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server_name is required")
	}
	if c.Server.EngineTimeoutSeconds <= 0 {
		return fmt.Errorf("engine_timeout_seconds must be positive")
	}
	if c.Inference.SourceMaxDim <= 0 {
		return fmt.Errorf("source_max_dim must be positive")
	}
	if c.Inference.SourceDivision <= 0 {
		return fmt.Errorf("source_division must be positive")
	}
	if !portrait.DrivingOption(c.Inference.DrivingOption).Valid() {
		return fmt.Errorf("driving_option %q is not supported", c.Inference.DrivingOption)
	}
	return nil
}

// EngineTimeout returns the job timeout as a duration
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Server.EngineTimeoutSeconds) * time.Second
}

// Addr returns the listen address of the HTTP host
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, fmt.Sprint(c.Server.Port))
}

// AnimationDefaults returns the initial animation request built from the
// resolved inference and crop options
func (c *Config) AnimationDefaults() portrait.AnimationRequest {
	req := portrait.DefaultAnimationRequest()
	req.Relative = c.Inference.FlagRelativeMotion
	req.DoCropSource = c.Inference.FlagDoCrop
	req.PasteBack = c.Inference.FlagPasteback
	req.Stitching = c.Inference.FlagStitching
	req.CropDrivingVideo = c.Inference.FlagCropDrivingVideo
	req.DrivingOption = portrait.DrivingOption(c.Inference.DrivingOption)
	req.DrivingMultiplier = c.Inference.DrivingMultiplier
	req.SmoothingVariance = c.Inference.SmoothingVariance
	req.SourceCrop = portrait.CropParams{Scale: c.Crop.Scale, VxRatio: c.Crop.VxRatio, VyRatio: c.Crop.VyRatio}
	req.DrivingCrop = portrait.CropParams{
		Scale:   c.Crop.ScaleCropDrivingVideo,
		VxRatio: c.Crop.VxRatioCropDrivingVideo,
		VyRatio: c.Crop.VyRatioCropDrivingVideo,
	}
	return req
}

// PluginLayer converts Stash plugin settings into an option layer. Unset or
// zero settings are left out so they never mask lower layers.
func PluginLayer(settings map[string]interface{}) map[string]interface{} {
	layer := make(map[string]interface{})
	if val := getStringSetting(settings, "engineUrl"); val != "" {
		layer["engine_url"] = val
	}
	if val := getIntSetting(settings, "engineTimeoutSeconds"); val > 0 {
		layer["engine_timeout_seconds"] = val
	}
	if val := getStringSetting(settings, "tempDir"); val != "" {
		layer["gradio_temp_dir"] = val
	}
	if val := getStringSetting(settings, "ffmpegDir"); val != "" {
		layer["ffmpeg_dir"] = val
	}
	if val := getIntSetting(settings, "sourceMaxDim"); val > 0 {
		layer["source_max_dim"] = val
	}
	if val := getFloatSetting(settings, "drivingMultiplier"); val > 0 {
		layer["driving_multiplier"] = val
	}
	if val := getFloatSetting(settings, "smoothingVariance"); val > 0 {
		layer["driving_smooth_observation_variance"] = val
	}
	if val := getStringSetting(settings, "drivingOption"); val != "" {
		layer["driving_option"] = val
	}
	if val, ok := settings["forceCpu"].(bool); ok {
		layer["flag_force_cpu"] = val
	}
	return layer
}

// getStringSetting retrieves a string setting from plugin config
func getStringSetting(config map[string]interface{}, key string) string {
	if val, ok := config[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// getIntSetting retrieves an integer setting from plugin config
func getIntSetting(config map[string]interface{}, key string) int {
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// getFloatSetting retrieves a float setting from plugin config
func getFloatSetting(config map[string]interface{}, key string) float64 {
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return 0.0
}

// resolveServiceURL resolves the engine URL with DNS lookup so container
// names work under Docker Compose. An empty URL falls back to the default
// container name and port.
func resolveServiceURL(configuredURL string, defaultContainerName string, defaultPort string) string {
	const defaultScheme = "http"
	var hardcodedFallback = fmt.Sprintf("%s://%s:%s", defaultScheme, defaultContainerName, defaultPort)

	if configuredURL == "" {
		log.Infof("No engine URL configured, using default: %s", hardcodedFallback)
		return hardcodedFallback
	}

	parsedURL, err := url.Parse(configuredURL)
	if err != nil {
		log.Warnf("Failed to parse engine URL '%s': %v, using fallback", configuredURL, err)
		return hardcodedFallback
	}

	hostname := parsedURL.Hostname()
	port := parsedURL.Port()
	scheme := parsedURL.Scheme
	if scheme == "" {
		scheme = defaultScheme
	}
	if port == "" {
		port = defaultPort
	}
	if hostname == "" {
		log.Warnf("Engine URL '%s' has no host, using fallback", configuredURL)
		return hardcodedFallback
	}

	// localhost and literal IPs are used as-is
	if hostname == "localhost" || net.ParseIP(hostname) != nil {
		return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(hostname, port))
	}

	log.Debugf("Resolving engine hostname via DNS: %s", hostname)
	addrs, err := net.LookupIP(hostname)
	if err != nil || len(addrs) == 0 {
		// The hostname might still resolve later, keep it
		log.Warnf("DNS lookup failed for '%s': %v, using hostname as-is", hostname, err)
		return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(hostname, port))
	}

	resolvedURL := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(addrs[0].String(), port))
	log.Infof("Resolved '%s' to %s", hostname, resolvedURL)
	return resolvedURL
}
