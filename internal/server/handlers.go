package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/growth-engine/growth-engine/internal/engagement"
	"github.com/growth-engine/growth-engine/internal/metrics"
	"github.com/growth-engine/growth-engine/internal/persuasion"
	"github.com/growth-engine/growth-engine/internal/store"
)

type HealthResponse struct {
	Status         string `json:"status"`
	TestsCount     int    `json:"tests_count"`
	ActiveSessions int    `json:"active_sessions"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tests, err := s.deps.Store.ListTests(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := HealthResponse{
		Status:         "ok",
		TestsCount:     len(tests),
		ActiveSessions: s.deps.Journeys.ActiveSessions(),
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// BeaconRequest is an incoming tracking event. Unknown tests and variants
// are dropped without an error; tracking is fire-and-forget.
type BeaconRequest struct {
	TestName  string `json:"t"`
	Variant   string `json:"v"`
	EventType string `json:"e"`
	VisitorID string `json:"vid"`
}

func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers for all responses
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	// Handle preflight
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BeaconRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.TestName == "" || req.VisitorID == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if !store.ValidEventType(req.EventType) {
		http.Error(w, "Invalid event type", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch req.EventType {
	case store.EventImpression:
		s.deps.ABTest.TrackImpression(ctx, req.VisitorID, req.TestName, req.Variant)
	case store.EventClick:
		s.deps.ABTest.TrackClick(ctx, req.VisitorID, req.TestName, req.Variant)
	case store.EventConversion:
		s.deps.ABTest.TrackConversion(ctx, req.VisitorID, req.TestName, req.Variant)
	}
	metrics.EventsTotal.WithLabelValues(req.EventType).Inc()

	w.WriteHeader(http.StatusNoContent)
}

// JourneyRequest mutates one session's journey state.
type JourneyRequest struct {
	SessionID     string `json:"session_id"`
	Action        string `json:"action"`
	Value         string `json:"value,omitempty"`
	VisitorID     string `json:"visitor_id,omitempty"`
	DeviceType    string `json:"device_type,omitempty"`
	ReturnVisitor bool   `json:"return_visitor,omitempty"`
}

func (s *Server) handleJourney(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JourneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	journeys := s.deps.Journeys
	switch req.Action {
	case "start":
		sessionID := journeys.StartSession(req.VisitorID, engagement.DeviceType(req.DeviceType), req.ReturnVisitor)
		metrics.ActiveSessions.Set(float64(journeys.ActiveSessions()))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"session_id": sessionID})
		return
	case "end":
		journeys.EndSession(req.SessionID)
		if s.deps.Monitor != nil {
			s.deps.Monitor.EndSession(req.SessionID)
		}
		metrics.ActiveSessions.Set(float64(journeys.ActiveSessions()))
	case "section":
		journeys.TrackSectionView(req.SessionID, req.Value)
	case "tool":
		journeys.TrackToolUsage(req.SessionID, req.Value)
	case "content":
		journeys.TrackContentConsumption(req.SessionID, req.Value)
	case "cta":
		journeys.TrackCTAClick(req.SessionID, req.Value)
	case "scroll":
		depth, err := strconv.Atoi(req.Value)
		if err != nil {
			http.Error(w, "Invalid scroll value", http.StatusBadRequest)
			return
		}
		journeys.UpdateScrollDepth(req.SessionID, depth)
		if s.deps.Monitor != nil {
			s.deps.Monitor.HandleScroll(req.SessionID)
		}
	case "time":
		seconds, err := strconv.Atoi(req.Value)
		if err != nil {
			http.Error(w, "Invalid time value", http.StatusBadRequest)
			return
		}
		journeys.UpdateTimeOnPage(req.SessionID, seconds)
	case "exit-intent":
		if s.deps.Monitor != nil {
			s.deps.Monitor.HandleExitIntent(req.SessionID)
		}
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VariantResponse is the assignment outcome for one visitor and test.
type VariantResponse struct {
	Test     string            `json:"test"`
	Variant  string            `json:"variant,omitempty"`
	Assigned bool              `json:"assigned"`
	Config   map[string]string `json:"config,omitempty"`
}

func (s *Server) handleVariant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	visitorID := r.URL.Query().Get("visitor")
	testName := r.URL.Query().Get("test")
	if visitorID == "" || testName == "" {
		http.Error(w, "visitor and test parameters required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	variantID, ok := s.deps.ABTest.Variant(ctx, visitorID, testName)

	response := VariantResponse{Test: testName, Variant: variantID, Assigned: ok}
	if ok {
		metrics.AssignmentsTotal.WithLabelValues("assigned").Inc()
		if test, err := s.deps.Store.GetTest(ctx, testName); err == nil {
			if v := test.Variant(variantID); v != nil {
				response.Config = v.Config
			}
		}
	} else {
		metrics.AssignmentsTotal.WithLabelValues("none").Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	max := 3
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid max", http.StatusBadRequest)
			return
		}
		max = n
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Query().Get("type") {
	case "content":
		items := s.deps.Selector.Content(sessionID, max)
		json.NewEncoder(w).Encode(map[string]any{"content": items})
	default:
		ctas := s.deps.Selector.CTAs(sessionID, max)
		json.NewEncoder(w).Encode(map[string]any{"ctas": ctas})
	}
}

// ScoreResponse is the engagement classification for one session.
type ScoreResponse struct {
	Score     int    `json:"score"`
	Level     string `json:"level"`
	Tier      string `json:"tier"`
	Pattern   string `json:"pattern"`
	Readiness int    `json:"readiness"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	level, ok := s.deps.Selector.Classify(sessionID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	metrics.ScoreRequestsTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ScoreResponse{
		Score:     level.Score,
		Level:     string(level.Level),
		Tier:      string(level.Tier),
		Pattern:   string(level.Pattern),
		Readiness: level.Readiness,
	})
}

func (s *Server) handlePersuasion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	pctx := persuasion.Context{Page: q.Get("page")}

	if sessionID := q.Get("session"); sessionID != "" {
		if snapshot, ok := s.deps.Journeys.Snapshot(sessionID); ok {
			pctx.TimeOnSiteSeconds = snapshot.SessionDurationSeconds
			pctx.PriorInteractions = snapshot.InteractionCount
			pctx.ReturnVisitor = snapshot.ReturnVisitor
		}
	}
	if raw := q.Get("time_on_site"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pctx.TimeOnSiteSeconds = n
		}
	}
	if raw := q.Get("interactions"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pctx.PriorInteractions = n
		}
	}
	if raw := q.Get("return_visitor"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			pctx.ReturnVisitor = b
		}
	}

	results := persuasion.SelectTriggers(pctx)
	if results == nil {
		results = []persuasion.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"triggers": results})
}
