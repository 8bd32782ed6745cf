package portrait_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/stash-portrait-plugin/internal/mocks"
	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

func newOrchestrator(t *testing.T) (*portrait.Orchestrator, *mocks.MockEngine) {
	t.Helper()
	engine := new(mocks.MockEngine)
	o, err := portrait.NewOrchestrator(engine)
	require.NoError(t, err)
	return o, engine
}

func TestNewOrchestrator_RequiresEngine(t *testing.T) {
	o, err := portrait.NewOrchestrator(nil)
	assert.Error(t, err)
	assert.Nil(t, o)
}

func TestAnimate_ImageSource(t *testing.T) {
	o, engine := newOrchestrator(t)

	req := portrait.DefaultAnimationRequest()
	req.Modality = portrait.ModalityImage
	req.SourceImage = "s9.jpg"
	req.DrivingVideo = "d0.mp4"

	engine.On("Animate", mock.Anything, mock.MatchedBy(func(p portrait.AnimateParams) bool {
		return p.SourceKind == portrait.SourceKindImage &&
			p.SourcePath == "s9.jpg" &&
			p.DrivingPath == "d0.mp4" &&
			p.Relative && p.DoCropSource && p.PasteBack && p.Stitching &&
			p.DrivingOption == portrait.DrivingExpressionFriendly &&
			p.DrivingMultiplier == 1.0 &&
			p.SourceCrop == portrait.CropParams{Scale: 2.3, VxRatio: 0, VyRatio: -0.125} &&
			p.DrivingCrop == portrait.CropParams{Scale: 2.2, VxRatio: 0, VyRatio: -0.1}
	})).Return(portrait.AnimationResult{Video: "out.mp4", Concat: "out_concat.mp4"}, nil).Once()

	result, err := o.Animate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "out.mp4", result.Video)
	assert.Equal(t, "out_concat.mp4", result.Concat)
	engine.AssertExpectations(t)
}

func TestAnimate_VideoSourceCarriesVideoOnlyFields(t *testing.T) {
	o, engine := newOrchestrator(t)

	req := portrait.DefaultAnimationRequest()
	req.Modality = portrait.ModalityVideo
	req.SourceImage = "ignored.jpg"
	req.SourceVideo = "source.mp4"
	req.DrivingVideo = "d0.mp4"
	req.RelativeHeadRotationV2V = true
	req.SmoothingVariance = 3e-6

	var captured portrait.AnimateParams
	engine.On("Animate", mock.Anything, mock.AnythingOfType("portrait.AnimateParams")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(portrait.AnimateParams) }).
		Return(portrait.AnimationResult{Video: "v.mp4", Concat: "c.mp4"}, nil).Once()

	_, err := o.Animate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, portrait.SourceKindVideo, captured.SourceKind)
	assert.Equal(t, "source.mp4", captured.SourcePath)
	assert.True(t, captured.RelativeHeadRotationV2V)
	assert.Equal(t, 3e-6, captured.SmoothingVariance)
}

func TestAnimate_ImageSourceDropsVideoOnlyFields(t *testing.T) {
	o, engine := newOrchestrator(t)

	req := portrait.DefaultAnimationRequest()
	req.Modality = portrait.ModalityImage
	req.SourceImage = "s9.jpg"
	req.SourceVideo = "ignored.mp4"
	req.DrivingVideo = "d0.mp4"
	req.RelativeHeadRotationV2V = true

	var captured portrait.AnimateParams
	engine.On("Animate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(portrait.AnimateParams) }).
		Return(portrait.AnimationResult{Video: "v.mp4", Concat: "c.mp4"}, nil).Once()

	_, err := o.Animate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "s9.jpg", captured.SourcePath)
	assert.False(t, captured.RelativeHeadRotationV2V)
	assert.Zero(t, captured.SmoothingVariance)
}

func TestAnimate_UnselectedFallsBackToImage(t *testing.T) {
	o, engine := newOrchestrator(t)

	req := portrait.DefaultAnimationRequest()
	req.SourceImage = "s9.jpg"
	req.DrivingVideo = "d0.mp4"

	engine.On("Animate", mock.Anything, mock.MatchedBy(func(p portrait.AnimateParams) bool {
		return p.SourceKind == portrait.SourceKindImage && p.SourcePath == "s9.jpg"
	})).Return(portrait.AnimationResult{Video: "v.mp4", Concat: "c.mp4"}, nil).Once()

	_, err := o.Animate(context.Background(), req)
	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestAnimate_MissingInputs(t *testing.T) {
	tests := []struct {
		name     string
		modality portrait.Modality
		image    string
		video    string
		driving  string
		input    string
	}{
		{"no driving in image mode", portrait.ModalityImage, "s9.jpg", "", "", "driving video"},
		{"no driving in video mode", portrait.ModalityVideo, "", "src.mp4", "", "driving video"},
		{"no driving when unselected", portrait.ModalityUnselected, "s9.jpg", "", "  ", "driving video"},
		{"no source image", portrait.ModalityImage, "", "src.mp4", "d0.mp4", "source image"},
		{"no source video", portrait.ModalityVideo, "s9.jpg", "", "d0.mp4", "source video"},
		{"nothing at all", portrait.ModalityVideo, "", "", "", "driving video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, engine := newOrchestrator(t)

			req := portrait.DefaultAnimationRequest()
			req.Modality = tt.modality
			req.SourceImage = tt.image
			req.SourceVideo = tt.video
			req.DrivingVideo = tt.driving

			_, err := o.Animate(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, portrait.ErrMissingInput)

			var missing *portrait.MissingInputError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.input, missing.Input)
			engine.AssertNotCalled(t, "Animate", mock.Anything, mock.Anything)
		})
	}
}

func TestAnimate_InvalidRangeDoesNotCallEngine(t *testing.T) {
	o, engine := newOrchestrator(t)

	req := portrait.DefaultAnimationRequest()
	req.SourceImage = "s9.jpg"
	req.DrivingVideo = "d0.mp4"
	req.DrivingMultiplier = 2.5

	_, err := o.Animate(context.Background(), req)
	assert.ErrorIs(t, err, portrait.ErrInvalidRange)
	engine.AssertNotCalled(t, "Animate", mock.Anything, mock.Anything)
}

func TestAnimate_EngineFailurePropagates(t *testing.T) {
	o, engine := newOrchestrator(t)
	cause := errors.New("no face detected in source")

	req := portrait.DefaultAnimationRequest()
	req.SourceImage = "s9.jpg"
	req.DrivingVideo = "d0.mp4"

	engine.On("Animate", mock.Anything, mock.Anything).Return(portrait.AnimationResult{}, cause).Once()

	_, err := o.Animate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, portrait.ErrEngineFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "no face detected in source")
}

func TestAnimate_EmptyOutputIsEngineFailure(t *testing.T) {
	tests := []struct {
		name   string
		result portrait.AnimationResult
	}{
		{"no files", portrait.AnimationResult{}},
		{"no concat", portrait.AnimationResult{Video: "v.mp4"}},
		{"no video", portrait.AnimationResult{Concat: "c.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, engine := newOrchestrator(t)
			req := portrait.DefaultAnimationRequest()
			req.SourceImage = "s9.jpg"
			req.DrivingVideo = "d0.mp4"
			engine.On("Animate", mock.Anything, mock.Anything).Return(tt.result, nil).Once()

			result, err := o.Animate(context.Background(), req)
			assert.ErrorIs(t, err, portrait.ErrEngineFailure)
			assert.Contains(t, err.Error(), "no output")
			assert.Equal(t, portrait.AnimationResult{}, result)
		})
	}
}

func TestAnimate_IsRepeatable(t *testing.T) {
	o, engine := newOrchestrator(t)

	req := portrait.DefaultAnimationRequest()
	req.SourceImage = "s9.jpg"
	req.DrivingVideo = "d0.mp4"

	engine.On("Animate", mock.Anything, mock.Anything).Return(portrait.AnimationResult{Video: "v.mp4", Concat: "c.mp4"}, nil).Twice()

	first, err := o.Animate(context.Background(), req)
	require.NoError(t, err)
	second, err := o.Animate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	engine.AssertNumberOfCalls(t, "Animate", 2)
}
