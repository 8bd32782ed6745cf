package stash

import (
	"context"
	"encoding/json"
	"fmt"

	graphql "github.com/hasura/go-graphql-client"
)

const pluginSettingsQuery = `query PluginSettings($include: [ID!]) {
  configuration {
    plugins(include: $include)
  }
}`

// GetPluginSettings fetches the saved settings of one plugin. A plugin
// without saved settings yields an empty map.
func GetPluginSettings(ctx context.Context, client *graphql.Client, pluginID string) (map[string]interface{}, error) {
	raw, err := client.ExecRaw(ctx, pluginSettingsQuery, map[string]interface{}{
		"include": []string{pluginID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin settings: %w", err)
	}

	var result struct {
		Configuration struct {
			Plugins map[string]map[string]interface{} `json:"plugins"`
		} `json:"configuration"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode plugin settings: %w", err)
	}

	settings := result.Configuration.Plugins[pluginID]
	if settings == nil {
		settings = make(map[string]interface{})
	}
	return settings, nil
}
