package stash

import (
	graphql "github.com/hasura/go-graphql-client"
)

// ImageFile represents a file associated with an image
type ImageFile struct {
	Path   string `graphql:"path"`
	Width  int    `graphql:"width"`
	Height int    `graphql:"height"`
}

// Image represents a Stash image
type Image struct {
	ID    graphql.ID  `graphql:"id"`
	Title string      `graphql:"title"`
	Files []ImageFile `graphql:"files"`
}

// VideoFile represents a scene's video file
type VideoFile struct {
	Path      string  `graphql:"path"`
	Width     int     `graphql:"width"`
	Height    int     `graphql:"height"`
	Duration  float64 `graphql:"duration"`
	FrameRate float64 `graphql:"frame_rate"`
}

// Scene represents a Stash scene
type Scene struct {
	ID    graphql.ID  `graphql:"id"`
	Title string      `graphql:"title"`
	Files []VideoFile `graphql:"files"`
}

// AssetKind distinguishes Stash objects that can act as media sources
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetScene AssetKind = "scene"
)
