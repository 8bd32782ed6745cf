package stash

import (
	"context"
	"sync"

	graphql "github.com/hasura/go-graphql-client"
)

type pathKey struct {
	kind AssetKind
	id   graphql.ID
}

// PathCache provides thread-safe cached file path lookups by Stash object
type PathCache struct {
	paths map[pathKey]string
	mu    sync.RWMutex
}

// NewPathCache creates a new path cache
func NewPathCache() *PathCache {
	return &PathCache{
		paths: make(map[pathKey]string),
	}
}

// Get retrieves a cached path
func (pc *PathCache) Get(kind AssetKind, id graphql.ID) (string, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	path, ok := pc.paths[pathKey{kind, id}]
	return path, ok
}

// Set stores a path in the cache
func (pc *PathCache) Set(kind AssetKind, id graphql.ID, path string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.paths[pathKey{kind, id}] = path
}

// Resolver maps Stash image and scene IDs to file paths, remembering every
// successful lookup
type Resolver struct {
	client *graphql.Client
	cache  *PathCache
}

// NewResolver creates a resolver backed by a GraphQL client
func NewResolver(client *graphql.Client) *Resolver {
	return &Resolver{client: client, cache: NewPathCache()}
}

// Path returns the file path of a Stash object
func (r *Resolver) Path(ctx context.Context, kind AssetKind, id graphql.ID) (string, error) {
	if path, ok := r.cache.Get(kind, id); ok {
		return path, nil
	}

	var (
		path string
		err  error
	)
	switch kind {
	case AssetScene:
		path, err = ScenePath(ctx, r.client, id)
	default:
		path, err = ImagePath(ctx, r.client, id)
	}
	if err != nil {
		return "", err
	}

	r.cache.Set(kind, id, path)
	return path, nil
}
