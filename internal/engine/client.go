package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

// ============================================================================
// Inference Engine Client
// ============================================================================
//
// The engine is a separate Python service that owns the neural networks.
// Short calls (baseline measurement, still-image retargeting, lip trajectory
// measurement) are synchronous JSON requests. Video rendering runs as a job:
//
// 1. Submit job with kind and params → receive job_id
// 2. Poll job status until completed/failed
// 3. Retrieve results with the output media paths
//
// ============================================================================

// Client handles communication with the inference engine
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// JobTimeout bounds a single rendering job, PollInterval sets the status
	// polling rate
	JobTimeout   time.Duration
	PollInterval time.Duration

	// OnProgress receives job progress in [0, 1]
	OnProgress func(float64)
}

// NewClient creates a new engine client
func NewClient(baseURL string, jobTimeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		JobTimeout:   jobTimeout,
		PollInterval: 2 * time.Second,
	}
}

// Health checks if the engine is available
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Configure sends the resolved inference and crop options to the engine
func (c *Client) Configure(ctx context.Context, inference config.InferenceConfig, crop config.CropConfig) error {
	log.Debugf("Configuring engine: device=%d cpu=%v half=%v", inference.DeviceID, inference.FlagForceCPU, inference.FlagUseHalfPrecision)
	if err := c.postJSON(ctx, "/v1/configure", ConfigureRequest{Inference: inference, Crop: crop}, nil); err != nil {
		return &portrait.EngineFailure{Op: "configure", Err: err}
	}
	return nil
}

// Animate renders a driving animation as an engine job
func (c *Client) Animate(ctx context.Context, params portrait.AnimateParams) (portrait.AnimationResult, error) {
	var result portrait.AnimationResult
	if err := c.runJob(ctx, JobAnimate, params, &result); err != nil {
		return portrait.AnimationResult{}, &portrait.EngineFailure{Op: "animate", Err: err}
	}
	return result, nil
}

// InitRetargeting measures baseline eye/lip openness of a source image
func (c *Client) InitRetargeting(ctx context.Context, sourceImagePath string, cropScale float64) (portrait.Baseline, error) {
	var baseline portrait.Baseline
	err := c.postJSON(ctx, "/v1/retargeting/init", InitRequest{SourcePath: sourceImagePath, Scale: cropScale}, &baseline)
	if err != nil {
		return portrait.Baseline{}, &portrait.EngineFailure{Op: "init retargeting", Err: err}
	}
	return baseline, nil
}

// RetargetImage edits expression and pose of a still image
func (c *Client) RetargetImage(ctx context.Context, params portrait.ImageRetargeting) (portrait.RetargetResult, error) {
	var result portrait.RetargetResult
	if err := c.postJSON(ctx, "/v1/retargeting/image", params, &result); err != nil {
		return portrait.RetargetResult{}, &portrait.EngineFailure{Op: "retarget image", Err: err}
	}
	return result, nil
}

// MeasureLipTrajectory returns per-frame lip openness of a source video
func (c *Client) MeasureLipTrajectory(ctx context.Context, sourceVideoPath string, cropScale float64, doCrop bool) ([]float64, error) {
	var resp TrajectoryResponse
	req := TrajectoryRequest{SourcePath: sourceVideoPath, Scale: cropScale, DoCrop: doCrop}
	if err := c.postJSON(ctx, "/v1/retargeting/video/trajectory", req, &resp); err != nil {
		return nil, &portrait.EngineFailure{Op: "measure lip trajectory", Err: err}
	}
	log.Debugf("Measured %d frames of %s", len(resp.LipRatios), sourceVideoPath)
	return resp.LipRatios, nil
}

// RetargetVideo renders a lip-retargeted video as an engine job
func (c *Client) RetargetVideo(ctx context.Context, params portrait.VideoRetargetParams) (portrait.RetargetResult, error) {
	var result portrait.RetargetResult
	if err := c.runJob(ctx, JobRetargetVideo, params, &result); err != nil {
		return portrait.RetargetResult{}, &portrait.EngineFailure{Op: "retarget video", Err: err}
	}
	return result, nil
}

// postJSON sends body and decodes a 200 response into out when out is non-nil
func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getJSON fetches path and decodes a 200 response into out
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ErrJobNotReady is returned when results are requested before completion
var ErrJobNotReady = errors.New("job not completed yet")

// statusError turns a non-success response into an error carrying the
// engine's own message
func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusConflict {
		return ErrJobNotReady
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, body.Detail)
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
