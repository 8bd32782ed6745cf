package stash

import (
	"context"
	"fmt"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/stashapp/stash/pkg/plugin/common/log"
)

// GetScene retrieves a single scene by ID
func GetScene(ctx context.Context, client *graphql.Client, sceneID graphql.ID) (*Scene, error) {
	var query struct {
		FindScene *Scene `graphql:"findScene(id: $id)"`
	}

	variables := map[string]interface{}{
		"id": sceneID,
	}

	if err := client.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query scene: %w", err)
	}
	if query.FindScene == nil {
		return nil, fmt.Errorf("scene %s not found", sceneID)
	}
	return query.FindScene, nil
}

// ScenePath returns the primary video file path of a Stash scene
func ScenePath(ctx context.Context, client *graphql.Client, sceneID graphql.ID) (string, error) {
	scene, err := GetScene(ctx, client, sceneID)
	if err != nil {
		return "", err
	}
	if len(scene.Files) == 0 || scene.Files[0].Path == "" {
		return "", fmt.Errorf("scene %s has no files", sceneID)
	}
	f := scene.Files[0]
	log.Tracef("Scene %s -> %s (%dx%d, %.1fs @ %.2ffps)", sceneID, f.Path, f.Width, f.Height, f.Duration, f.FrameRate)
	return f.Path, nil
}
