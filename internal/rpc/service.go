package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/stashapp/stash/pkg/plugin/common"
	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
	"github.com/smegmarip/stash-portrait-plugin/internal/engine"
	"github.com/smegmarip/stash-portrait-plugin/internal/media"
	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
	"github.com/smegmarip/stash-portrait-plugin/internal/stash"
)

// Modes lists every task mode the plugin declares
var Modes = []string{"animate", "initRetargeting", "retargetImage", "retargetVideo", "resetGroup"}

// NewService creates a new RPC service instance. Engine and Stash
// connections are set up on the first task.
func NewService() (*Service, error) {
	s := &Service{modes: dispatchTable()}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewServiceWith creates a service bound to an existing engine and path
// resolver
func NewServiceWith(cfg *config.Config, eng portrait.Engine, resolver PathResolver) (*Service, error) {
	s, err := NewService()
	if err != nil {
		return nil, err
	}
	orchestrator, err := portrait.NewOrchestrator(eng)
	if err != nil {
		return nil, err
	}
	s.config = cfg
	s.engine = eng
	s.resolver = resolver
	s.orchestrator = orchestrator
	s.session = portrait.NewSession(PluginID)
	return s, nil
}

// validate checks that every declared mode has a handler and that the reset
// groups are well formed
func (s *Service) validate() error {
	for _, mode := range Modes {
		if s.modes[mode] == nil {
			return fmt.Errorf("mode %s has no handler", mode)
		}
	}
	if len(s.modes) != len(Modes) {
		return fmt.Errorf("dispatch table has %d handlers for %d declared modes", len(s.modes), len(Modes))
	}
	return portrait.ValidateResetGroups()
}

// init connects to Stash and the engine once per process
func (s *Service) init(ctx context.Context, input common.PluginInput) error {
	if s.orchestrator != nil {
		return nil
	}

	s.serverConnection = input.ServerConnection
	client := stash.Client(input.ServerConnection)
	s.resolver = stash.NewResolver(client)

	settings, err := stash.GetPluginSettings(ctx, client, PluginID)
	if err != nil {
		// Don't fail - use defaults
		log.Warnf("Failed to get plugin configuration: %v, using defaults", err)
		settings = map[string]interface{}{}
	}

	cfg, err := config.Load(config.PluginLayer(settings))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s.config = cfg

	if err := media.CheckFFmpeg(cfg.Server.FFmpegDir); err != nil {
		return err
	}

	engineClient := engine.NewClient(cfg.Server.EngineURL, cfg.EngineTimeout())
	engineClient.OnProgress = log.Progress
	if err := engineClient.Configure(ctx, cfg.Inference, cfg.Crop); err != nil {
		return err
	}
	s.engine = engineClient

	s.orchestrator, err = portrait.NewOrchestrator(s.engine)
	if err != nil {
		return err
	}
	s.session = portrait.NewSession(PluginID)

	log.Infof("Portrait plugin ready - engine at %s", cfg.Server.EngineURL)
	return nil
}

// Stop handles graceful shutdown of the plugin
func (s *Service) Stop(input struct{}, output *bool) error {
	log.Info("Stopping portrait plugin...")
	s.stateMu.Lock()
	s.stopping = true
	if s.cancel != nil {
		s.cancel()
	}
	s.stateMu.Unlock()
	*output = true
	return nil
}

// errorOutput creates an error output for RPC response
func (s *Service) errorOutput(output *common.PluginOutput, err error) error {
	errStr := describe(err)
	*output = common.PluginOutput{
		Error: &errStr,
	}
	return nil
}

// describe prefixes an error with its category so the Stash UI can tell
// user-correctable problems from engine failures
func describe(err error) string {
	switch {
	case errors.Is(err, portrait.ErrMissingInput), errors.Is(err, portrait.ErrInvalidRange):
		return "invalid request: " + err.Error()
	case errors.Is(err, portrait.ErrEnvironment):
		return "environment: " + err.Error()
	case errors.Is(err, portrait.ErrEngineFailure):
		return "engine: " + err.Error()
	}
	return err.Error()
}
