package stash

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	graphql "github.com/hasura/go-graphql-client"

	"github.com/stashapp/stash/pkg/plugin/common"
)

// sanitize strips null properties from GraphQL request bodies. Stash
// rejects explicit nulls for several optional filter inputs.
func sanitize(req *http.Request) {
	if req.Method != http.MethodPost || req.Body == nil || req.Header.Get("Content-Type") != "application/json" {
		return
	}

	original, err := io.ReadAll(req.Body)
	req.Body.Close()
	restore := func(b []byte) {
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.ContentLength = int64(len(b))
	}
	if err != nil {
		restore(original)
		return
	}

	var data interface{}
	if err := json.Unmarshal(original, &data); err != nil {
		restore(original)
		return
	}
	cleaned, err := json.Marshal(dropNulls(data))
	if err != nil {
		restore(original)
		return
	}
	restore(cleaned)
}

// dropNulls recursively removes null map values
func dropNulls(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if child != nil {
				out[k] = dropNulls(child)
			}
		}
		return out
	case []interface{}:
		for i, child := range val {
			val[i] = dropNulls(child)
		}
		return val
	default:
		return val
	}
}

// NewClient creates a GraphQL client for an arbitrary endpoint with request
// sanitisation. Used by tests and by hosts that talk to Stash directly.
func NewClient(endpoint string, httpClient graphql.Doer, options ...graphql.ClientOption) *graphql.Client {
	return graphql.NewClient(endpoint, httpClient, options...).WithRequestModifier(sanitize)
}

// Client creates a GraphQL client for the Stash server that launched the
// plugin, carrying its session cookie
func Client(provider common.StashServerConnection) *graphql.Client {
	u := &url.URL{
		Scheme: provider.Scheme,
		Host:   provider.Host + ":" + strconv.Itoa(provider.Port),
		Path:   "/graphql",
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	jar, _ := cookiejar.New(nil)
	if provider.SessionCookie != nil {
		jar.SetCookies(u, []*http.Cookie{provider.SessionCookie})
	}

	httpClient := &http.Client{
		Jar:     jar,
		Timeout: 30 * time.Second,
	}
	return NewClient(u.String(), httpClient)
}
