package uiapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/awaistahir/eterna/internal/config"
	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/session"
	"github.com/awaistahir/eterna/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	// Version is reported by /api/status
	Version = "1.0.0"
	// historyPage is how many entries the history endpoint returns
	historyPage = 24
	// maxSeedDays caps the mock history a new session starts with
	maxSeedDays = 7
)

type Server struct {
	store      *store.Store
	cfg        *config.Config
	sessions   *session.Registry
	phrasebook engine.Phrasebook
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time

	// sources built around math/rand are not safe for concurrent use
	srcMu  sync.Mutex
	source engine.UsageSource
}

func NewServer(st *store.Store, cfg *config.Config, src engine.UsageSource, logger *zap.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:      st,
		cfg:        cfg,
		sessions:   session.NewRegistry(session.DefaultCapacity),
		phrasebook: engine.DefaultPhrasebook(),
		logger:     logger,
		loc:        loc,
		now:        time.Now,
		source:     src,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for local development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/household", s.handleGetHousehold)
		r.Put("/household", s.handleUpdateHousehold)
		r.Get("/tariff", s.handleGetTariff)
		r.Put("/tariff", s.handleUpdateTariff)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Get("/dashboard", s.handleDashboard)
			r.Post("/simulate", s.handleSimulate)
			r.Get("/history", s.handleHistory)
			r.Get("/forecast", s.handleForecast)
		})
	})

	return r
}

// requestLogger logs one line per request with zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  Version,
		"timezone": s.loc.String(),
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) household() (engine.UserPreferences, error) {
	return s.store.HouseholdOrDefault(store.DefaultHousehold)
}

func (s *Server) tariff() (engine.PricingConfig, error) {
	return s.store.TariffOr(store.DefaultHousehold, s.cfg.EnginePricing())
}

func (s *Server) advisor() (*engine.Advisor, error) {
	t, err := s.tariff()
	if err != nil {
		return nil, err
	}
	a := engine.NewAdvisor(engine.Options{Rules: s.cfg.EngineRules(), Pricing: t})
	a.TimeOfUse = s.cfg.Pricing.TimeOfUse
	a.Phrasebook = s.phrasebook
	return a, nil
}

func (s *Server) snapshot(at time.Time) (engine.UsageSnapshot, error) {
	s.srcMu.Lock()
	defer s.srcMu.Unlock()
	return s.source.Snapshot(at)
}

func (s *Server) language(r *http.Request) engine.Language {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return engine.ParseLanguage(lang)
	}
	return engine.ParseLanguage(s.cfg.Language)
}

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.household()
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdateHousehold(w http.ResponseWriter, r *http.Request) {
	// Fields missing from the body keep their current value
	prefs, err := s.household()
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.SaveHousehold(store.DefaultHousehold, prefs); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleGetTariff(w http.ResponseWriter, r *http.Request) {
	t, err := s.tariff()
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTariff(w http.ResponseWriter, r *http.Request) {
	t, err := s.tariff()
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.SaveTariff(store.DefaultHousehold, t); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

type CreateSessionRequest struct {
	HistoryDays *int `json:"history_days,omitempty"` // defaults to 7
}

type SessionResponse struct {
	ID         string    `json:"id"`
	Created    time.Time `json:"created"`
	HistoryLen int       `json:"history_len"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	days := maxSeedDays
	if req.HistoryDays != nil {
		days = *req.HistoryDays
	}
	if days < 0 || days > maxSeedDays {
		respondError(w, http.StatusBadRequest, "history_days must be within 0-"+strconv.Itoa(maxSeedDays))
		return
	}

	var seed []engine.HistoryEntry
	if days > 0 {
		// Whole days ending yesterday; today's readings arrive through the dashboard
		yesterday := s.now().In(s.loc).AddDate(0, 0, -1)
		s.srcMu.Lock()
		history, err := engine.BuildHistory(s.source, yesterday, days-1)
		s.srcMu.Unlock()
		if err != nil {
			respondErr(w, err)
			return
		}
		seed = history
	}

	sess, err := s.sessions.Create(seed)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.logger.Debug("session created", zap.String("session", sess.ID), zap.Int("history", len(seed)))
	respondJSON(w, http.StatusCreated, SessionResponse{
		ID:         sess.ID,
		Created:    sess.Created,
		HistoryLen: len(seed),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(id); err != nil {
		respondErr(w, err)
		return
	}
	s.sessions.Delete(id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

// handleDashboard draws a new reading, records it and returns impact and advice for it
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}

	now := s.now().In(s.loc)
	usage, err := s.snapshot(now)
	if err != nil {
		respondErr(w, err)
		return
	}

	habits, err := sess.Record(engine.HistoryEntry{Timestamp: now, Usage: usage})
	if err != nil {
		respondErr(w, err)
		return
	}

	s.respondDashboard(w, usage, habits, now, s.language(r))
}

// handleSimulate evaluates a caller-supplied reading without touching the session history
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}

	var usage engine.UsageSnapshot
	if err := json.NewDecoder(r.Body).Decode(&usage); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	at := s.now().In(s.loc)
	if h := r.URL.Query().Get("hour"); h != "" {
		hour, err := strconv.Atoi(h)
		if err != nil || hour < 0 || hour > 23 {
			respondError(w, http.StatusBadRequest, "hour must be an integer within 0-23")
			return
		}
		at = time.Date(at.Year(), at.Month(), at.Day(), hour, 0, 0, 0, s.loc)
	}

	s.respondDashboard(w, usage, sess.Habits(), at, s.language(r))
}

func (s *Server) respondDashboard(w http.ResponseWriter, usage engine.UsageSnapshot, habits engine.HabitState, at time.Time, lang engine.Language) {
	prefs, err := s.household()
	if err != nil {
		respondErr(w, err)
		return
	}
	advisor, err := s.advisor()
	if err != nil {
		respondErr(w, err)
		return
	}

	d, err := advisor.Dashboard(usage, prefs, habits, at, lang)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.History(historyPage))
}

type ForecastResponse struct {
	TomorrowKWh float64             `json:"tomorrow_kwh"`
	Daily       []engine.DailyTotal `json:"daily"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}

	history := sess.History(0)
	tomorrow, err := engine.ForecastTomorrow(history)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ForecastResponse{
		TomorrowKWh: engine.Round2(tomorrow),
		Daily:       engine.DailyTotals(history),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps domain errors onto status codes
func respondErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientHistory):
		status = http.StatusUnprocessableEntity
	}
	respondError(w, status, err.Error())
}
