package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"appagent/internal/agent"
	"appagent/internal/command"
	"appagent/internal/config"
	"appagent/internal/manager"
	"appagent/internal/models"
	"appagent/internal/predict"
	"appagent/internal/reporter"
	"appagent/pkg/window"
)

// Engine is the agent manager as seen by the API.
type Engine interface {
	Status() manager.Status
	Agents() []*agent.AppAgent
	FunctionalAgents() []agent.FunctionalAgent
	RunCommand(ctx context.Context, command string, arg any) agent.Outcome
	CheckCommandEnabled(arg *agent.CommandEnabledArg)
	TypeText(text string) error
	OnFocusChanged(ctx context.Context, info window.ActivityInfo)
	OnFocusLost()
}

// Store is the read side of the repository.
type Store interface {
	reporter.Source
	RecentCommands(limit int) ([]*models.CommandEvent, error)
}

// Vocabulary lists globally handled commands.
type Vocabulary interface {
	Commands() []string
}

// Deps wires the handler. Predictor and Panels may be nil.
type Deps struct {
	Config    *config.Config
	Engine    Engine
	Store     Store
	Global    Vocabulary
	Predictor predict.Predictor
	Panels    http.Handler
	Metrics   http.Handler
	Logger    *zap.Logger
}

type Handler struct {
	deps     Deps
	reporter *reporter.Reporter
	logger   *zap.Logger
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Predictor == nil {
		deps.Predictor = predict.Disabled
	}
	return &Handler{
		deps:     deps,
		reporter: reporter.New(deps.Config, deps.Store),
		logger:   deps.Logger.Named("web"),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/agents", h.handleAgents)
	mux.HandleFunc("/api/commands", h.handleCommands)
	mux.HandleFunc("/api/run", h.handleRun)
	mux.HandleFunc("/api/type", h.handleType)
	mux.HandleFunc("/api/focus", h.handleFocus)
	mux.HandleFunc("/api/predict", h.handlePredict)
	mux.HandleFunc("/api/events", h.handleEvents)
	mux.HandleFunc("/api/report", h.handleReport)

	mux.HandleFunc("/health", h.handleHealth)
	if h.deps.Metrics != nil {
		mux.Handle("/metrics", h.deps.Metrics)
	}
	if h.deps.Panels != nil {
		mux.Handle("/ws/panels", h.deps.Panels)
	}
}

type statusResponse struct {
	manager.Status
	PollInterval string `json:"poll_interval"`
	Backend      string `json:"backend"`
	DatabasePath string `json:"database_path"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{
		Status:       h.deps.Engine.Status(),
		PollInterval: h.deps.Config.Tracker.PollInterval.String(),
		Backend:      h.deps.Config.Tracker.Backend,
		DatabasePath: h.deps.Config.Database.Path,
	})
}

type agentInfo struct {
	Name       string   `json:"name"`
	Processes  []string `json:"processes"`
	Commands   []string `json:"commands"`
	AutoSwitch bool     `json:"auto_switch"`
	Current    bool     `json:"current"`
}

type functionalInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

func (h *Handler) handleAgents(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	st := h.deps.Engine.Status()

	var apps []agentInfo
	for _, a := range h.deps.Engine.Agents() {
		info := agentInfo{
			Name:       a.Name(),
			Commands:   a.Commands(),
			AutoSwitch: a.AutoSwitch(),
			Current:    a.Name() == st.CurrentAgent,
		}
		for _, p := range a.ProcessesSupported() {
			info.Processes = append(info.Processes, p.ProcessName)
		}
		apps = append(apps, info)
	}

	var functional []functionalInfo
	for _, f := range h.deps.Engine.FunctionalAgents() {
		functional = append(functional, functionalInfo{
			Name:     f.Name(),
			Category: f.Category(),
			Active:   f.Name() == st.ActiveFunctional,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"agents": apps, "functional": functional})
}

type commandInfo struct {
	Name    string `json:"name"`
	Global  bool   `json:"global"`
	Enabled bool   `json:"enabled"`
}

// vocabulary is every command any agent or the global chain knows.
func (h *Handler) vocabulary() (names []string, global map[string]bool) {
	seen := map[string]bool{}
	global = map[string]bool{}
	if h.deps.Global != nil {
		for _, c := range h.deps.Global.Commands() {
			seen[c] = true
			global[c] = true
		}
	}
	for _, a := range h.deps.Engine.Agents() {
		for _, c := range a.Commands() {
			seen[c] = true
		}
	}
	for _, c := range agent.GenericCommands() {
		seen[c] = true
	}
	for c := range seen {
		names = append(names, c)
	}
	sort.Strings(names)
	return names, global
}

func (h *Handler) handleCommands(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	names, global := h.vocabulary()
	out := make([]commandInfo, 0, len(names))
	for _, name := range names {
		arg := &agent.CommandEnabledArg{Command: name}
		h.deps.Engine.CheckCommandEnabled(arg)
		out = append(out, commandInfo{Name: name, Global: global[name], Enabled: arg.Enabled || global[name]})
	}
	respondJSON(w, http.StatusOK, out)
}

type runRequest struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

type runResponse struct {
	Command    string `json:"command"`
	Outcome    string `json:"outcome"`
	Handled    bool   `json:"handled"`
	Succeeded  bool   `json:"succeeded"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		respondError(w, http.StatusBadRequest, "body must be {\"command\": \"...\"}")
		return
	}

	var arg any
	if req.Arg != "" {
		arg = req.Arg
	}
	out := h.deps.Engine.RunCommand(r.Context(), req.Command, arg)
	resp := runResponse{
		Command:   req.Command,
		Outcome:   out.String(),
		Handled:   out.IsHandled(),
		Succeeded: out.Succeeded(),
	}

	status := http.StatusOK
	switch out {
	case agent.NotHandled:
		status = http.StatusNotFound
		names, _ := h.vocabulary()
		resp.Suggestion, _ = command.Suggest(req.Command, names)
	case agent.Denied:
		status = http.StatusConflict
	case agent.Failed:
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, resp)
}

func (h *Handler) handleType(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "body must be {\"text\": \"...\"}")
		return
	}
	if err := h.deps.Engine.TypeText(req.Text); err != nil {
		h.logger.Warn("typing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"typed": len([]rune(req.Text))})
}

type focusRequest struct {
	Window  uint32 `json:"window"`
	Element uint32 `json:"element"`
	Process string `json:"process"`
	PID     int    `json:"pid"`
	App     string `json:"app"`
	Title   string `json:"title"`
}

// handleFocus feeds focus changes from outside, for headless daemons.
// An empty process means focus left every window.
func (h *Handler) handleFocus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req focusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "body must be {\"process\": \"...\", \"window\": n}")
		return
	}
	if req.Process == "" {
		h.deps.Engine.OnFocusLost()
		respondJSON(w, http.StatusOK, h.deps.Engine.Status())
		return
	}

	prev := h.deps.Engine.Status().Foreground
	h.deps.Engine.OnFocusChanged(r.Context(), window.ActivityInfo{
		WindowHandle:   req.Window,
		FocusedElement: req.Element,
		IsNewWindow:    req.Window != prev.WindowHandle || req.Process != prev.ProcessName,
		ProcessName:    req.Process,
		PID:            req.PID,
		AppName:        req.App,
		Title:          req.Title,
		Timestamp:      time.Now(),
	})
	respondJSON(w, http.StatusOK, h.deps.Engine.Status())
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	words, err := h.deps.Predictor.Predict(r.Context(), q.Get("prev"), q.Get("word"))
	if err != nil {
		h.logger.Debug("prediction failed", zap.Error(err))
		words = nil
	}
	if words == nil {
		words = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"words": words})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	events, err := h.deps.Store.RecentCommands(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch events: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to generate report: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
