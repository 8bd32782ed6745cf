package portrait

import (
	"fmt"
	"sort"
)

// ResetGroupID names a group of controls cleared together
type ResetGroupID string

const (
	ResetAnimation        ResetGroupID = "animation"
	ResetRetargetingImage ResetGroupID = "retargeting-image"
	ResetRetargetingVideo ResetGroupID = "retargeting-video"
)

// ControlDefault pairs a control with the value it is reset to
type ControlDefault struct {
	Control Control     `json:"control"`
	Value   interface{} `json:"value"`
}

// ResetGroups declares every reset group and its defaults
var ResetGroups = map[ResetGroupID][]ControlDefault{
	ResetAnimation: {
		{ControlSourceImage, ""},
		{ControlSourceVideo, ""},
		{ControlDrivingVideo, ""},
		{ControlVideo, ""},
		{ControlConcatVideo, ""},
	},
	ResetRetargetingImage: {
		{ControlEyeRatio, 0.0},
		{ControlLipRatio, 0.0},
		{ControlHeadPitch, 0.0},
		{ControlHeadYaw, 0.0},
		{ControlHeadRoll, 0.0},
		{ControlRetargetingImage, ""},
		{ControlRetargetedImage, ""},
		{ControlPasteBackImage, ""},
	},
	ResetRetargetingVideo: {
		{ControlVideoLipRatio, 0.0},
		{ControlRetargetingVideo, ""},
		{ControlRetargetedVideo, ""},
		{ControlPasteBackVideo, ""},
	},
}

// ResetGroup returns the defaults of a group. The returned slice is a copy.
func ResetGroup(id ResetGroupID) ([]ControlDefault, error) {
	defaults, ok := ResetGroups[id]
	if !ok {
		return nil, fmt.Errorf("unknown reset group: %s", id)
	}
	out := make([]ControlDefault, len(defaults))
	copy(out, defaults)
	return out, nil
}

// ResetGroupIDs lists the declared groups in stable order
func ResetGroupIDs() []ResetGroupID {
	ids := make([]ResetGroupID, 0, len(ResetGroups))
	for id := range ResetGroups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ValidateResetGroups checks that every group names known controls with
// assignable defaults. Hosts call it once at startup.
func ValidateResetGroups() error {
	for _, id := range ResetGroupIDs() {
		probe := DefaultControls()
		for _, d := range ResetGroups[id] {
			if err := probe.set(d.Control, d.Value); err != nil {
				return fmt.Errorf("reset group %s: %w", id, err)
			}
		}
	}
	return nil
}
