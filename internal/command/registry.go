package command

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"appagent/internal/agent"
)

// Constructor builds the handler for one dispatch of command.
type Constructor func(command string, arg any, env Env) Handler

// Chain runs pre-built handlers. The first one bound to the command wins.
type Chain []Handler

func (c Chain) OnRunCommand(ctx context.Context, command string, _ any) agent.Outcome {
	for _, h := range c {
		if h.Command() != command {
			continue
		}
		if out := h.Execute(ctx); out.IsHandled() {
			return out
		}
	}
	return agent.NotHandled
}

// Registry maps command names to handler constructors. It is the global
// link at the end of every dispatch.
type Registry struct {
	env Env

	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry holding the built-in handlers.
func NewRegistry(env Env) *Registry {
	r := &Registry{env: env, ctors: make(map[string]Constructor)}
	r.Register(CmdPhraseSpeak, NewShowPhraseSpeakHandler)
	r.Register(CmdShowEditPhrasesSettings, NewShowPhraseSpeakHandler)
	r.Register(CmdSwitchWindows, NewShowSwitchWindowsHandler)
	return r
}

// Register binds command to c, replacing any previous binding.
func (r *Registry) Register(command string, c Constructor) {
	r.mu.Lock()
	r.ctors[command] = c
	r.mu.Unlock()
}

// Handler builds the handler for command, or reports false.
func (r *Registry) Handler(command string, arg any) (Handler, bool) {
	r.mu.RLock()
	c, ok := r.ctors[command]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c(command, arg, r.env), true
}

// Commands returns the registered command names, sorted.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) OnRunCommand(ctx context.Context, command string, arg any) agent.Outcome {
	h, ok := r.Handler(command, arg)
	if !ok {
		return agent.NotHandled
	}
	return h.Execute(ctx)
}

// Suggest returns the known command closest to command, if one is close
// enough to be a likely typo.
func Suggest(command string, known []string) (string, bool) {
	needle := strings.ToLower(command)
	best, bestDist := "", -1
	for _, k := range known {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(k))
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist < 0 || bestDist == 0 && best == command {
		return "", false
	}

	limit := len(command) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist > limit {
		return "", false
	}
	return best, true
}
