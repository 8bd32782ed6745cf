package engine

import (
	"encoding/json"
	"time"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

// JobKind selects the long-running engine workflow
type JobKind string

const (
	JobAnimate       JobKind = "animate"
	JobRetargetVideo JobKind = "retarget_video"
)

// Job status values reported by the engine
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ConfigureRequest pushes the resolved inference and crop options
type ConfigureRequest struct {
	Inference config.InferenceConfig `json:"inference"`
	Crop      config.CropConfig      `json:"crop"`
}

// InitRequest asks for the baseline openness of a source image
type InitRequest struct {
	SourcePath string  `json:"source_path"`
	Scale      float64 `json:"scale"`
}

// TrajectoryRequest asks for per-frame lip openness of a source video
type TrajectoryRequest struct {
	SourcePath string  `json:"source_path"`
	Scale      float64 `json:"scale"`
	DoCrop     bool    `json:"flag_do_crop"`
}

// TrajectoryResponse holds one lip-open ratio per source frame
type TrajectoryResponse struct {
	LipRatios []float64 `json:"lip_ratios"`
	FPS       float64   `json:"fps,omitempty"`
}

// JobRequest submits a long-running workflow
type JobRequest struct {
	Kind   JobKind     `json:"kind"`
	Params interface{} `json:"params"`
}

// JobResponse is returned on job submission
type JobResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatus reports job progress
type JobStatus struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	Stage       string     `json:"stage,omitempty"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobResults wraps the output of a completed job. Result decodes into
// portrait.AnimationResult or portrait.RetargetResult depending on the kind.
type JobResults struct {
	JobID  string          `json:"job_id"`
	Kind   JobKind         `json:"kind"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

// errorResponse is the engine's error body
type errorResponse struct {
	Detail string `json:"detail"`
}

var _ portrait.Engine = (*Client)(nil)
