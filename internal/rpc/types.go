package rpc

import (
	"context"
	"sync"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/stashapp/stash/pkg/plugin/common"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
	"github.com/smegmarip/stash-portrait-plugin/internal/stash"
)

// PluginID is the Stash plugin ID whose settings configure the service
const PluginID = "portrait"

// PathResolver maps Stash object IDs to file paths
type PathResolver interface {
	Path(ctx context.Context, kind stash.AssetKind, id graphql.ID) (string, error)
}

// handlerFunc runs one task mode and returns its output
type handlerFunc func(s *Service, ctx context.Context, args Args) (interface{}, error)

// Service is the main RPC service struct
type Service struct {
	// runMu serialises tasks that share one engine
	runMu sync.Mutex
	modes map[string]handlerFunc

	stateMu  sync.Mutex
	stopping bool
	cancel   context.CancelFunc

	serverConnection common.StashServerConnection
	config           *config.Config
	resolver         PathResolver
	engine           portrait.Engine
	orchestrator     *portrait.Orchestrator
	session          *portrait.Session
}

// AnimateResponse is the output of the animate mode
type AnimateResponse struct {
	Modality string                   `json:"modality"`
	Result   portrait.AnimationResult `json:"result"`
}

// RetargetResponse is the output of both retargeting modes
type RetargetResponse struct {
	Result portrait.RetargetResult `json:"result"`
}

// BaselineResponse is the output of the initRetargeting mode
type BaselineResponse struct {
	Baseline portrait.Baseline `json:"baseline"`
}

// ResetResponse is the output of the resetGroup mode
type ResetResponse struct {
	Group    portrait.ResetGroupID     `json:"group"`
	Defaults []portrait.ControlDefault `json:"defaults"`
	Controls portrait.Controls         `json:"controls"`
}
