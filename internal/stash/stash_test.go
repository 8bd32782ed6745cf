package stash_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/stash-portrait-plugin/internal/stash"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// fakeStash answers GraphQL queries with canned data keyed by the root field
func fakeStash(t *testing.T, calls *int32, responses map[string]interface{}) *graphql.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for key, data := range responses {
			if strings.Contains(req.Query, key) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]string{{"message": "unexpected query"}},
		})
	}))
	t.Cleanup(server.Close)
	return stash.NewClient(server.URL, server.Client())
}

func TestImagePath(t *testing.T) {
	var calls int32
	client := fakeStash(t, &calls, map[string]interface{}{
		"findImage": map[string]interface{}{
			"findImage": map[string]interface{}{
				"id":    "12",
				"title": "portrait",
				"files": []map[string]interface{}{{"path": "/library/s9.jpg", "width": 512, "height": 512}},
			},
		},
	})

	path, err := stash.ImagePath(context.Background(), client, "12")
	require.NoError(t, err)
	assert.Equal(t, "/library/s9.jpg", path)
}

func TestImagePath_NotFound(t *testing.T) {
	var calls int32
	client := fakeStash(t, &calls, map[string]interface{}{
		"findImage": map[string]interface{}{"findImage": nil},
	})

	_, err := stash.ImagePath(context.Background(), client, "404")
	assert.Error(t, err)
}

func TestScenePath(t *testing.T) {
	var calls int32
	client := fakeStash(t, &calls, map[string]interface{}{
		"findScene": map[string]interface{}{
			"findScene": map[string]interface{}{
				"id":    "7",
				"title": "clip",
				"files": []map[string]interface{}{{"path": "/library/d0.mp4", "width": 512, "height": 512, "duration": 3.1, "frame_rate": 25}},
			},
		},
	})

	path, err := stash.ScenePath(context.Background(), client, "7")
	require.NoError(t, err)
	assert.Equal(t, "/library/d0.mp4", path)
}

func TestScenePath_NoFiles(t *testing.T) {
	var calls int32
	client := fakeStash(t, &calls, map[string]interface{}{
		"findScene": map[string]interface{}{
			"findScene": map[string]interface{}{"id": "8", "title": "", "files": []interface{}{}},
		},
	})

	_, err := stash.ScenePath(context.Background(), client, "8")
	assert.Error(t, err)
}

func TestResolver_CachesLookups(t *testing.T) {
	var calls int32
	client := fakeStash(t, &calls, map[string]interface{}{
		"findScene": map[string]interface{}{
			"findScene": map[string]interface{}{
				"id":    "7",
				"title": "clip",
				"files": []map[string]interface{}{{"path": "/library/d0.mp4"}},
			},
		},
	})
	resolver := stash.NewResolver(client)

	for i := 0; i < 3; i++ {
		path, err := resolver.Path(context.Background(), stash.AssetScene, "7")
		require.NoError(t, err)
		assert.Equal(t, "/library/d0.mp4", path)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetPluginSettings(t *testing.T) {
	var calls int32
	client := fakeStash(t, &calls, map[string]interface{}{
		"configuration": map[string]interface{}{
			"configuration": map[string]interface{}{
				"plugins": map[string]interface{}{
					"portrait": map[string]interface{}{"engineUrl": "http://engine:8000", "forceCpu": true},
				},
			},
		},
	})

	settings, err := stash.GetPluginSettings(context.Background(), client, "portrait")
	require.NoError(t, err)
	assert.Equal(t, "http://engine:8000", settings["engineUrl"])
	assert.Equal(t, true, settings["forceCpu"])

	empty, err := stash.GetPluginSettings(context.Background(), client, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPathCache(t *testing.T) {
	cache := stash.NewPathCache()

	_, found := cache.Get(stash.AssetImage, "1")
	assert.False(t, found)

	cache.Set(stash.AssetImage, "1", "/a.jpg")
	cache.Set(stash.AssetScene, "1", "/a.mp4")

	path, found := cache.Get(stash.AssetImage, "1")
	assert.True(t, found)
	assert.Equal(t, "/a.jpg", path)

	path, found = cache.Get(stash.AssetScene, "1")
	assert.True(t, found)
	assert.Equal(t, "/a.mp4", path, "kinds do not collide")
}

func TestPathCache_Concurrent(t *testing.T) {
	cache := stash.NewPathCache()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := graphql.ID(strings.Repeat("x", id%5+1))
			cache.Set(stash.AssetImage, key, "/p")
			_, _ = cache.Get(stash.AssetImage, key)
		}(i)
	}
	wg.Wait()

	_, found := cache.Get(stash.AssetImage, "xxx")
	assert.True(t, found)
}
