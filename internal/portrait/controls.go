package portrait

import (
	"fmt"
	"sync"
)

// Control names one value of the control surface
type Control string

const (
	ControlSourceImage  Control = "source_image"
	ControlSourceVideo  Control = "source_video"
	ControlDrivingVideo Control = "driving_video"
	ControlVideo        Control = "output_video"
	ControlConcatVideo  Control = "output_video_concat"

	ControlRetargetingImage  Control = "retargeting_input_image"
	ControlEyeRatio          Control = "eye_retargeting"
	ControlLipRatio          Control = "lip_retargeting"
	ControlHeadPitch         Control = "head_pitch"
	ControlHeadYaw           Control = "head_yaw"
	ControlHeadRoll          Control = "head_roll"
	ControlRetargetedImage   Control = "output_image"
	ControlPasteBackImage    Control = "output_image_paste_back"
	ControlRetargetingVideo  Control = "retargeting_input_video"
	ControlVideoLipRatio     Control = "video_lip_retargeting"
	ControlRetargetedVideo   Control = "output_retargeted_video"
	ControlPasteBackVideo    Control = "output_video_paste_back"
	ControlRetargetingScale  Control = "retargeting_source_scale"
	ControlVideoRetargetCrop Control = "video_retargeting_source_scale"
)

// Controls is the per-session value of every resettable control. It is a
// plain value: copies are snapshots.
type Controls struct {
	SourceImage  string `json:"source_image"`
	SourceVideo  string `json:"source_video"`
	DrivingVideo string `json:"driving_video"`
	Video        string `json:"output_video"`
	ConcatVideo  string `json:"output_video_concat"`

	RetargetingImage string  `json:"retargeting_input_image"`
	RetargetingScale float64 `json:"retargeting_source_scale"`
	EyeRatio         float64 `json:"eye_retargeting"`
	LipRatio         float64 `json:"lip_retargeting"`
	HeadPitch        float64 `json:"head_pitch"`
	HeadYaw          float64 `json:"head_yaw"`
	HeadRoll         float64 `json:"head_roll"`
	RetargetedImage  string  `json:"output_image"`
	PasteBackImage   string  `json:"output_image_paste_back"`

	RetargetingVideo      string  `json:"retargeting_input_video"`
	VideoRetargetingScale float64 `json:"video_retargeting_source_scale"`
	VideoLipRatio         float64 `json:"video_lip_retargeting"`
	RetargetedVideo       string  `json:"output_retargeted_video"`
	PasteBackVideo        string  `json:"output_video_paste_back"`
}

// DefaultControls returns the initial control values of a new session
func DefaultControls() Controls {
	return Controls{
		RetargetingScale:      2.5,
		VideoRetargetingScale: 2.3,
	}
}

// set assigns a single control. Strings go to asset/output controls and
// float64 values to slider controls.
func (c *Controls) set(control Control, value interface{}) error {
	if s, ok := value.(string); ok {
		if field := c.stringField(control); field != nil {
			*field = s
			return nil
		}
	}
	if f, ok := value.(float64); ok {
		if field := c.floatField(control); field != nil {
			*field = f
			return nil
		}
	}
	if !KnownControl(control) {
		return fmt.Errorf("unknown control: %s", control)
	}
	return fmt.Errorf("control %s cannot hold %T", control, value)
}

func (c *Controls) stringField(control Control) *string {
	switch control {
	case ControlSourceImage:
		return &c.SourceImage
	case ControlSourceVideo:
		return &c.SourceVideo
	case ControlDrivingVideo:
		return &c.DrivingVideo
	case ControlVideo:
		return &c.Video
	case ControlConcatVideo:
		return &c.ConcatVideo
	case ControlRetargetingImage:
		return &c.RetargetingImage
	case ControlRetargetedImage:
		return &c.RetargetedImage
	case ControlPasteBackImage:
		return &c.PasteBackImage
	case ControlRetargetingVideo:
		return &c.RetargetingVideo
	case ControlRetargetedVideo:
		return &c.RetargetedVideo
	case ControlPasteBackVideo:
		return &c.PasteBackVideo
	}
	return nil
}

func (c *Controls) floatField(control Control) *float64 {
	switch control {
	case ControlEyeRatio:
		return &c.EyeRatio
	case ControlLipRatio:
		return &c.LipRatio
	case ControlHeadPitch:
		return &c.HeadPitch
	case ControlHeadYaw:
		return &c.HeadYaw
	case ControlHeadRoll:
		return &c.HeadRoll
	case ControlVideoLipRatio:
		return &c.VideoLipRatio
	case ControlRetargetingScale:
		return &c.RetargetingScale
	case ControlVideoRetargetCrop:
		return &c.VideoRetargetingScale
	}
	return nil
}

// KnownControl reports whether control names a field of Controls
func KnownControl(control Control) bool {
	var c Controls
	return c.stringField(control) != nil || c.floatField(control) != nil
}

// Session is the mutable UI state of one operator: the active source tab and
// the control values. Orchestrator calls receive copies, never the session.
type Session struct {
	ID       string
	Modality *ModalitySelector

	mu       sync.Mutex
	controls Controls
}

// NewSession creates a session with default controls and no tab selected
func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		Modality: NewModalitySelector(),
		controls: DefaultControls(),
	}
}

// Controls returns a snapshot of the session's control values
func (s *Session) Controls() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// Update mutates the control values under the session lock
func (s *Session) Update(fn func(c *Controls)) Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.controls)
	return s.controls
}

// Apply overwrites every listed control at once. Either all values are
// applied or, on error, none are.
func (s *Session) Apply(defaults []ControlDefault) (Controls, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.controls
	for _, d := range defaults {
		if err := next.set(d.Control, d.Value); err != nil {
			return s.controls, err
		}
	}
	s.controls = next
	return s.controls, nil
}
