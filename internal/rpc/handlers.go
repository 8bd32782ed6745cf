package rpc

import (
	"context"
	"fmt"

	"github.com/stashapp/stash/pkg/plugin/common"
	"github.com/stashapp/stash/pkg/plugin/common/log"
)

// dispatchTable maps task modes to handlers
func dispatchTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		"animate":         (*Service).animate,
		"initRetargeting": (*Service).initRetargeting,
		"retargetImage":   (*Service).retargetImage,
		"retargetVideo":   (*Service).retargetVideo,
		"resetGroup":      (*Service).resetGroup,
	}
}

// Run handles RPC task execution. Tasks run one at a time; Stop cancels the
// task currently holding the run lock.
func (s *Service) Run(input common.PluginInput, output *common.PluginOutput) error {
	args := Args(input.Args.ToMap())
	mode := args.String("mode", "")
	handler, ok := s.modes[mode]
	if !ok {
		return s.errorOutput(output, fmt.Errorf("unknown mode: %s", mode))
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !s.begin(cancel) {
		return s.errorOutput(output, fmt.Errorf("plugin is stopping"))
	}
	defer s.finish()

	if err := s.init(ctx, input); err != nil {
		return s.errorOutput(output, err)
	}

	log.Infof("Portrait plugin task started - mode: %s", mode)
	result, err := handler(s, ctx, args)
	if err != nil {
		log.Errorf("Task %s failed: %v", mode, err)
		return s.errorOutput(output, err)
	}

	*output = common.PluginOutput{
		Output: result,
	}
	return nil
}

// begin publishes the running task's cancel func unless the plugin is
// stopping. Callers hold runMu.
func (s *Service) begin(cancel context.CancelFunc) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.stopping {
		return false
	}
	s.cancel = cancel
	return true
}

// finish clears the cancel func of the task that just ended
func (s *Service) finish() {
	s.stateMu.Lock()
	s.cancel = nil
	s.stateMu.Unlock()
}
