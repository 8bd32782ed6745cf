package portrait

import (
	"fmt"
	"strings"
	"sync"
)

// Modality identifies which source slot is authoritative for a request
type Modality int

const (
	ModalityUnselected Modality = iota
	ModalityImage
	ModalityVideo
)

// String converts Modality to its UI label
func (m Modality) String() string {
	switch m {
	case ModalityImage:
		return "Image"
	case ModalityVideo:
		return "Video"
	default:
		return "Unselected"
	}
}

// Tab is a source-input tab whose activation selects a modality
type Tab string

const (
	TabImage Tab = "image"
	TabVideo Tab = "video"
)

// ParseTab converts a tab name from the transport layer
func ParseTab(name string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(name))) {
	case TabImage:
		return TabImage, nil
	case TabVideo:
		return TabVideo, nil
	default:
		return "", fmt.Errorf("unknown tab: %q", name)
	}
}

// ModalitySelector tracks the active source tab. It starts Unselected and,
// once a tab has been activated, never returns to Unselected.
type ModalitySelector struct {
	mu    sync.RWMutex
	state Modality
}

// NewModalitySelector creates a selector in the Unselected state
func NewModalitySelector() *ModalitySelector {
	return &ModalitySelector{}
}

// SelectTab applies a tab-activation event and returns the new state
func (s *ModalitySelector) SelectTab(tab Tab) Modality {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch tab {
	case TabImage:
		s.state = ModalityImage
	case TabVideo:
		s.state = ModalityVideo
	}
	return s.state
}

// Snapshot reads the current state once. Callers hold the returned value for
// the whole duration of an orchestrator call.
func (s *ModalitySelector) Snapshot() Modality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
