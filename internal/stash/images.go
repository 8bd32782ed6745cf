package stash

import (
	"context"
	"fmt"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/stashapp/stash/pkg/plugin/common/log"
)

// GetImage retrieves a single image by ID
func GetImage(ctx context.Context, client *graphql.Client, imageID graphql.ID) (*Image, error) {
	var query struct {
		FindImage *Image `graphql:"findImage(id: $id)"`
	}

	variables := map[string]interface{}{
		"id": imageID,
	}

	if err := client.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query image: %w", err)
	}
	if query.FindImage == nil {
		return nil, fmt.Errorf("image %s not found", imageID)
	}
	return query.FindImage, nil
}

// ImagePath returns the primary file path of a Stash image
func ImagePath(ctx context.Context, client *graphql.Client, imageID graphql.ID) (string, error) {
	image, err := GetImage(ctx, client, imageID)
	if err != nil {
		return "", err
	}
	for _, f := range image.Files {
		if f.Path != "" {
			log.Tracef("Image %s -> %s (%dx%d)", imageID, f.Path, f.Width, f.Height)
			return f.Path, nil
		}
	}
	return "", fmt.Errorf("image %s has no files", imageID)
}
