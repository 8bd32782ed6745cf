package stash

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_DropsNulls(t *testing.T) {
	body := `{"query":"q","variables":{"id":"1","filter":null,"nested":{"a":null,"b":2},"list":[{"c":null}]}}`
	req, err := http.NewRequest(http.MethodPost, "http://stash/graphql", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	sanitize(req)

	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), req.ContentLength)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]interface{}{
		"query": "q",
		"variables": map[string]interface{}{
			"id":     "1",
			"nested": map[string]interface{}{"b": float64(2)},
			"list":   []interface{}{map[string]interface{}{}},
		},
	}, got)
}

func TestSanitize_LeavesOtherRequestsAlone(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://stash/graphql", bytes.NewBufferString("not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	sanitize(req)

	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))

	get, err := http.NewRequest(http.MethodGet, "http://stash/graphql", nil)
	require.NoError(t, err)
	sanitize(get)
	assert.Nil(t, get.Body)
}
