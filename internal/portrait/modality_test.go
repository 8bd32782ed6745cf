package portrait_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

func TestModalitySelector_StartsUnselected(t *testing.T) {
	s := portrait.NewModalitySelector()
	assert.Equal(t, portrait.ModalityUnselected, s.Snapshot())
	assert.Equal(t, "Unselected", s.Snapshot().String())
}

func TestModalitySelector_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		events []portrait.Tab
		want   portrait.Modality
	}{
		{"image tab", []portrait.Tab{portrait.TabImage}, portrait.ModalityImage},
		{"video tab", []portrait.Tab{portrait.TabVideo}, portrait.ModalityVideo},
		{"image then video", []portrait.Tab{portrait.TabImage, portrait.TabVideo}, portrait.ModalityVideo},
		{"video then image", []portrait.Tab{portrait.TabVideo, portrait.TabImage}, portrait.ModalityImage},
		{"repeated tab", []portrait.Tab{portrait.TabVideo, portrait.TabVideo}, portrait.ModalityVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := portrait.NewModalitySelector()
			var got portrait.Modality
			for _, tab := range tt.events {
				got = s.SelectTab(tab)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Snapshot())
		})
	}
}

func TestModalitySelector_NeverReturnsToUnselected(t *testing.T) {
	s := portrait.NewModalitySelector()
	s.SelectTab(portrait.TabImage)
	s.SelectTab(portrait.Tab("bogus"))
	assert.Equal(t, portrait.ModalityImage, s.Snapshot())
}

func TestModalitySelector_ConcurrentEvents(t *testing.T) {
	s := portrait.NewModalitySelector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SelectTab(portrait.TabImage)
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, portrait.ModalityImage, s.Snapshot())
}

func TestParseTab(t *testing.T) {
	tab, err := portrait.ParseTab(" Video ")
	require.NoError(t, err)
	assert.Equal(t, portrait.TabVideo, tab)

	tab, err = portrait.ParseTab("image")
	require.NoError(t, err)
	assert.Equal(t, portrait.TabImage, tab)

	_, err = portrait.ParseTab("audio")
	assert.Error(t, err)
}
