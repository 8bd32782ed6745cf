package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

// MockEngine is a mock implementation of the inference engine
type MockEngine struct {
	mock.Mock
}

// Animate mocks driving animation
func (m *MockEngine) Animate(ctx context.Context, params portrait.AnimateParams) (portrait.AnimationResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(portrait.AnimationResult), args.Error(1)
}

// InitRetargeting mocks baseline measurement
func (m *MockEngine) InitRetargeting(ctx context.Context, sourceImagePath string, cropScale float64) (portrait.Baseline, error) {
	args := m.Called(ctx, sourceImagePath, cropScale)
	return args.Get(0).(portrait.Baseline), args.Error(1)
}

// RetargetImage mocks still-image retargeting
func (m *MockEngine) RetargetImage(ctx context.Context, params portrait.ImageRetargeting) (portrait.RetargetResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(portrait.RetargetResult), args.Error(1)
}

// MeasureLipTrajectory mocks per-frame lip measurement
func (m *MockEngine) MeasureLipTrajectory(ctx context.Context, sourceVideoPath string, cropScale float64, doCrop bool) ([]float64, error) {
	args := m.Called(ctx, sourceVideoPath, cropScale, doCrop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

// RetargetVideo mocks video lip retargeting
func (m *MockEngine) RetargetVideo(ctx context.Context, params portrait.VideoRetargetParams) (portrait.RetargetResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(portrait.RetargetResult), args.Error(1)
}
