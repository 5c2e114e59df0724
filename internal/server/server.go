// Package server exposes the growth engine over HTTP: journey mutations,
// engagement scoring, CTA/content selection, A/B assignment and tracking,
// persuasion triggers, and a token-protected operator dashboard.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/growth-engine/growth-engine/internal/abtest"
	"github.com/growth-engine/growth-engine/internal/journey"
	"github.com/growth-engine/growth-engine/internal/logging"
	"github.com/growth-engine/growth-engine/internal/metrics"
	"github.com/growth-engine/growth-engine/internal/selector"
	"github.com/growth-engine/growth-engine/internal/store"
	"github.com/growth-engine/growth-engine/internal/triggers"
)

// Deps are the injected engines the server fronts. No package-level
// singletons; every server owns exactly the instances it was given.
type Deps struct {
	Store    store.Store
	Journeys *journey.Store
	Selector *selector.Engine
	ABTest   *abtest.Engine
	Monitor  *triggers.Monitor
	Log      *logging.Logger
}

type Server struct {
	deps      Deps
	port      int
	token     string
	tokenFile string
	router    *http.ServeMux
	startTime time.Time
}

func New(deps Deps, port int, tokenFile string) *Server {
	srv := &Server{
		deps:      deps,
		port:      port,
		token:     generateToken(),
		tokenFile: tokenFile,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/b", s.handleBeacon)
	s.router.HandleFunc("/api/journey", s.handleJourney)
	s.router.HandleFunc("/api/variant", s.handleVariant)
	s.router.HandleFunc("/api/select", s.handleSelect)
	s.router.HandleFunc("/api/score", s.handleScore)
	s.router.HandleFunc("/api/persuasion", s.handlePersuasion)
	s.router.Handle("/metrics", metrics.Handler())

	// Dashboard endpoints (protected)
	s.router.Handle("/dashboard", s.authMiddleware(http.HandlerFunc(s.handleDashboard)))
	s.router.Handle("/dashboard/api/tests", s.authMiddleware(http.HandlerFunc(s.handleDashboardAPI)))
}

func (s *Server) Start() error {
	return s.StartWithOptions(true)
}

// StartQuiet starts the server without printing startup messages
func (s *Server) StartQuiet() error {
	return s.StartWithOptions(false)
}

func (s *Server) StartWithOptions(printMessages bool) error {
	// Write token to file for OTP command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			fmt.Printf("Warning: failed to write token file: %v\n", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.port)

	if printMessages {
		fmt.Println()
		fmt.Printf("growth-engine running on http://localhost:%d\n", s.port)
		fmt.Printf("Dashboard: http://localhost:%d/dashboard?token=%s\n", s.port, s.token)
		fmt.Println()
		fmt.Println("Press Ctrl+C to stop")
	}

	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}
