package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"appagent/internal/config"
	"appagent/internal/manager"
)

// errUnreachable means no daemon answered on the configured address.
var errUnreachable = errors.New("daemon is not reachable")

// apiClient talks to a running daemon's web API.
type apiClient struct {
	http *resty.Client
}

func newAPIClient(cfg *config.Config) *apiClient {
	return newAPIClientAt(fmt.Sprintf("http://%s:%d", cfg.Web.Host, cfg.Web.Port))
}

func newAPIClientAt(baseURL string) *apiClient {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.RetryWaitMin = 100 * time.Millisecond
	retry.RetryWaitMax = time.Second
	retry.Logger = nil
	// Only connection failures are retried. A command the daemon answered,
	// even with a 5xx, has already run.
	retry.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	c := resty.NewWithClient(retry.StandardClient()).
		SetBaseURL(baseURL).
		SetTimeout(5*time.Second).
		SetHeader("User-Agent", "appagent-cli/"+version)
	return &apiClient{http: c}
}

type apiError struct {
	Error string `json:"error"`
}

type statusReply struct {
	manager.Status
	PollInterval string `json:"poll_interval"`
	Backend      string `json:"backend"`
	DatabasePath string `json:"database_path"`
}

type agentReply struct {
	Name       string   `json:"name"`
	Processes  []string `json:"processes"`
	Commands   []string `json:"commands"`
	AutoSwitch bool     `json:"auto_switch"`
	Current    bool     `json:"current"`
}

type functionalReply struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

type agentsReply struct {
	Apps       []agentReply      `json:"agents"`
	Functional []functionalReply `json:"functional"`
}

type commandReply struct {
	Name    string `json:"name"`
	Global  bool   `json:"global"`
	Enabled bool   `json:"enabled"`
}

type runReply struct {
	Command    string `json:"command"`
	Outcome    string `json:"outcome"`
	Handled    bool   `json:"handled"`
	Succeeded  bool   `json:"succeeded"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (c *apiClient) Status(ctx context.Context) (*statusReply, error) {
	var out statusReply
	return &out, c.get(ctx, "/api/status", &out)
}

func (c *apiClient) Agents(ctx context.Context) (*agentsReply, error) {
	var out agentsReply
	return &out, c.get(ctx, "/api/agents", &out)
}

func (c *apiClient) Commands(ctx context.Context) ([]commandReply, error) {
	var out []commandReply
	return out, c.get(ctx, "/api/commands", &out)
}

// Run dispatches a command. Unhandled, denied and failed commands still
// return a reply; only transport and protocol errors are errors.
func (c *apiClient) Run(ctx context.Context, command, arg string) (*runReply, error) {
	var out runReply
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"command": command, "arg": arg}).
		SetResult(&out).
		SetError(&out).
		Post("/api/run")
	if err != nil {
		return nil, errors.Wrap(errUnreachable, err.Error())
	}
	if out.Outcome == "" {
		return nil, errors.Errorf("unexpected response %s", resp.Status())
	}
	return &out, nil
}

func (c *apiClient) Type(ctx context.Context, text string) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		SetError(&apiErr).
		Post("/api/type")
	if err != nil {
		return errors.Wrap(errUnreachable, err.Error())
	}
	if resp.IsError() {
		return errors.Errorf("type failed: %s", apiErr.Error)
	}
	return nil
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return errors.Wrap(errUnreachable, err.Error())
	}
	if resp.IsError() {
		return errors.Errorf("%s: %s %s", path, resp.Status(), apiErr.Error)
	}
	return nil
}
