package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stashapp/stash/pkg/plugin/common/log"
)

// SubmitJob submits a rendering job to the engine
func (c *Client) SubmitJob(ctx context.Context, kind JobKind, params interface{}) (*JobResponse, error) {
	var jobResp JobResponse
	if err := c.postJSON(ctx, "/v1/jobs", JobRequest{Kind: kind, Params: params}, &jobResp); err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}
	if jobResp.JobID == "" {
		return nil, fmt.Errorf("engine accepted %s job without a job id", kind)
	}

	log.Infof("Engine job submitted: kind=%s job_id=%s", kind, jobResp.JobID)
	return &jobResp, nil
}

// GetJobStatus polls job status and progress
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%s/status", jobID), &status); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &status, nil
}

// GetResults retrieves job results (only available when status=completed)
func (c *Client) GetResults(ctx context.Context, jobID string) (*JobResults, error) {
	var results JobResults
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%s/results", jobID), &results); err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return &results, nil
}

// WaitForCompletion polls until the job completes, fails, times out or ctx
// is cancelled
func (c *Client) WaitForCompletion(ctx context.Context, jobID string) (*JobResults, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var timeout <-chan time.Time
	if c.JobTimeout > 0 {
		timer := time.NewTimer(c.JobTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	log.Infof("Waiting for engine job %s to complete", jobID)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("job %s abandoned: %w", jobID, ctx.Err())

		case <-timeout:
			return nil, fmt.Errorf("job %s timed out after %s", jobID, c.JobTimeout)

		case <-ticker.C:
			status, err := c.GetJobStatus(ctx, jobID)
			if err != nil {
				return nil, err
			}

			if c.OnProgress != nil {
				c.OnProgress(status.Progress)
			}

			if status.Stage != "" {
				log.Debugf("Job %s: status=%s, stage=%s, progress=%.1f%%, message=%s",
					jobID, status.Status, status.Stage, status.Progress*100, status.Message)
			} else {
				log.Debugf("Job %s: status=%s, progress=%.1f%%", jobID, status.Status, status.Progress*100)
			}

			switch status.Status {
			case StatusCompleted:
				log.Infof("Engine job %s completed", jobID)
				return c.GetResults(ctx, jobID)
			case StatusFailed:
				return nil, fmt.Errorf("job failed: %s", status.Error)
			}
		}
	}
}

// runJob submits a job, waits for it and decodes its result into out
func (c *Client) runJob(ctx context.Context, kind JobKind, params interface{}, out interface{}) error {
	job, err := c.SubmitJob(ctx, kind, params)
	if err != nil {
		return err
	}

	results, err := c.WaitForCompletion(ctx, job.JobID)
	if err != nil {
		return err
	}
	if len(results.Result) == 0 {
		return fmt.Errorf("job %s returned no result", job.JobID)
	}
	if err := json.Unmarshal(results.Result, out); err != nil {
		return fmt.Errorf("failed to decode job result: %w", err)
	}
	return nil
}
