package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adspot/adspot/internal/config"
	"github.com/adspot/adspot/internal/database"
	"github.com/adspot/adspot/internal/models"
	"github.com/adspot/adspot/internal/reporter"
	"github.com/adspot/adspot/internal/settings"
	"github.com/adspot/adspot/internal/tracker"
	"github.com/adspot/adspot/pkg/utils"
)

const defaultEventLimit = 100

// Controller is the running monitor host. *tracker.Service satisfies it.
type Controller interface {
	Status() tracker.Status
	SetEnabled(enabled bool)
	Restart(ctx context.Context) error
}

type Handler struct {
	config     *config.Config
	repo       *database.Repository
	reporter   *reporter.Reporter
	settings   *settings.Store
	controller Controller
	metrics    http.Handler
	logger     *zap.Logger
}

func NewHandler(cfg *config.Config, repo *database.Repository, store *settings.Store, controller Controller, metrics http.Handler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		config:     cfg,
		repo:       repo,
		reporter:   reporter.New(repo),
		settings:   store,
		controller: controller,
		metrics:    metrics,
		logger:     logger,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/settings", h.handleSettings)
	mux.HandleFunc("/api/restart", h.handleRestart)
	mux.HandleFunc("/api/events", h.handleEvents)
	mux.HandleFunc("/api/events/latest", h.handleLatestEvent)
	mux.HandleFunc("/api/report", h.handleReport)

	mux.HandleFunc("/health", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics)
	}

	mux.HandleFunc("/", h.handleIndex)
}

type statusResponse struct {
	tracker.Status
	PollInterval string            `json:"poll_interval"`
	LatestEvent  *models.MuteEvent `json:"latest_event,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeStatus(w, r)
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := h.repo.GetLatest()
	if err != nil {
		h.logger.Warn("failed to fetch latest event", zap.Error(err))
	}

	resp := statusResponse{
		Status:       h.controller.Status(),
		PollInterval: h.config.Monitor.PollInterval.String(),
		LatestEvent:  latest,
	}

	if isHTMX(r) {
		h.respondStatusHTML(w, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		current, err := h.settings.Load()
		if err != nil && !errors.Is(err, settings.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Failed to load settings: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, current)

	case http.MethodPut, http.MethodPost:
		if !sameOrigin(r) {
			http.Error(w, "Cross-origin request rejected", http.StatusForbidden)
			return
		}
		updated, err := decodeSettings(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.settings.Save(updated); err != nil {
			http.Error(w, fmt.Sprintf("Failed to save settings: %v", err), http.StatusInternalServerError)
			return
		}
		h.controller.SetEnabled(updated.Enabled)

		if isHTMX(r) {
			h.writeStatus(w, r)
			return
		}
		respondJSON(w, http.StatusOK, updated)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// decodeSettings accepts a JSON body or an htmx form post.
func decodeSettings(r *http.Request) (settings.Settings, error) {
	var s settings.Settings

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Enabled *bool `json:"enabled"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			return s, errors.Wrap(err, "invalid settings body")
		}
		if body.Enabled == nil {
			return s, errors.New("missing field: enabled")
		}
		s.Enabled = *body.Enabled
		return s, nil
	}

	if err := r.ParseForm(); err != nil {
		return s, errors.Wrap(err, "invalid form")
	}
	enabled, err := strconv.ParseBool(r.PostForm.Get("enabled"))
	if err != nil {
		return s, errors.New("enabled must be true or false")
	}
	s.Enabled = enabled
	return s, nil
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !sameOrigin(r) {
		http.Error(w, "Cross-origin request rejected", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.controller.Restart(ctx); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, tracker.ErrNotRunning) {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("Failed to restart monitor: %v", err), code)
		return
	}

	respondJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	since := time.Now().Add(-24 * time.Hour)
	if periodType := query.Get("period"); periodType != "" {
		period, err := reporter.GetPeriod(periodType, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		since = period.Start
	}

	limit := defaultEventLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = l
	}

	events, err := h.repo.GetRecentEvents(since, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch events: %v", err), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []*models.MuteEvent{}
	}

	respondJSON(w, http.StatusOK, events)
}

func (h *Handler) handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := h.repo.GetLatest()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest event: %v", err), http.StatusInternalServerError)
		return
	}

	if event == nil {
		http.Error(w, "No events found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	if _, err := reporter.GetPeriod(periodType, time.Now()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return
	}

	if isHTMX(r) {
		h.respondReportHTML(w, report)
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

func (h *Handler) respondStatusHTML(w http.ResponseWriter, resp statusResponse) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	state := "Idle"
	switch {
	case !resp.Running:
		state = "Not running"
	case !resp.Enabled:
		state = "Disabled"
	case resp.Muted:
		state = "Muted"
	}

	toggle := "true"
	label := "Enable"
	if resp.Enabled {
		toggle = "false"
		label = "Disable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="state">%s</div>`, html.EscapeString(state))
	fmt.Fprintf(&b, `<div class="detail">Watching <b>%s</b> for &ldquo;%s&rdquo; every %s</div>`,
		html.EscapeString(resp.Target), html.EscapeString(resp.TriggerTitle), html.EscapeString(resp.PollInterval))
	if resp.Backend != "" {
		fmt.Fprintf(&b, `<div class="detail">%s windows, %s audio, %d ticks</div>`,
			html.EscapeString(resp.Inspector), html.EscapeString(resp.Backend), resp.Ticks)
	}
	if resp.LastError != "" {
		fmt.Fprintf(&b, `<div class="error">%s</div>`, html.EscapeString(utils.Truncate(resp.LastError, 160)))
	}
	fmt.Fprintf(&b, `<button class="header-btn" hx-put="/api/settings" hx-vals='{"enabled": "%s"}' hx-target="#status">%s</button>`,
		toggle, label)

	w.Write([]byte(b.String()))
}

func (h *Handler) respondReportHTML(w http.ResponseWriter, report *models.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Spans) == 0 {
		w.Write([]byte(`<div class="loading">No interruptions</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	loc := time.Local
	for i := len(report.Spans) - 1; i >= 0; i-- {
		s := report.Spans[i]
		fmt.Fprintf(&b, `
		<div class="span-item">
			<span class="span-start">%s</span>
			<span class="span-time">%s</span>
		</div>`, s.Start.In(loc).Format("Jan 2 15:04:05"), utils.FormatDuration(time.Duration(s.Seconds)*time.Second))
	}
	b.WriteString(`</div>`)

	fmt.Fprintf(&b, `<div class="total">%d muted, %s total</div>`,
		report.Interruptions, utils.FormatDuration(time.Duration(report.MutedSeconds)*time.Second))

	w.Write([]byte(b.String()))
}

// sameOrigin reports whether a state-changing request came from the
// dashboard itself. Browsers send Sec-Fetch-Site or Origin; the CLI and curl
// send neither and are allowed.
func sameOrigin(r *http.Request) bool {
	if site := r.Header.Get("Sec-Fetch-Site"); site != "" {
		return site == "same-origin" || site == "none"
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
