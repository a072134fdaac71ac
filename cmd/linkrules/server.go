package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liamcoop/linkrules/facts"
	"github.com/liamcoop/linkrules/rules"
	"github.com/liamcoop/linkrules/ruleset"
)

type Server struct {
	manager  *ruleset.Manager
	backend  *factBackend
	gatherer prometheus.Gatherer
	router   *chi.Mux
}

func NewServer(manager *ruleset.Manager, backend *factBackend, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		manager:  manager,
		backend:  backend,
		gatherer: gatherer,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/rules", s.handleListRules)
	r.Post("/api/v1/evaluate", s.handleEvaluate)

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"facts":       s.backend.kind,
		"rulesLoaded": s.manager.Registry().Len(),
	})
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	type rule struct {
		Name      string   `json:"name"`
		Condition string   `json:"condition"`
		Actions   []string `json:"actions"`
	}

	reg := s.manager.Registry()
	rulesList := make([]rule, 0, reg.Len())
	for _, name := range reg.Names() {
		rl, err := reg.Get(name)
		if err != nil {
			// Registries never shrink, so a listed name is always present.
			continue
		}
		actions := make([]string, 0, len(rl.Actions()))
		for _, a := range rl.Actions() {
			actions = append(actions, fmt.Sprint(a))
		}
		rulesList = append(rulesList, rule{
			Name:      rl.Name(),
			Condition: fmt.Sprint(rl.Condition()),
			Actions:   actions,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"facts": s.manager.Schema(),
		"rules": rulesList,
	})
}

// resultResponse is the JSON form of one rule evaluation
type resultResponse struct {
	Rule       string        `json:"rule"`
	Outcome    rules.Outcome `json:"outcome"`
	ErrorKind  string        `json:"errorKind,omitempty"`
	Error      string        `json:"error,omitempty"`
	ActionsRun int           `json:"actionsRun"`
	Duration   string        `json:"duration"`
}

// Evaluation handler
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Facts   map[string]any `json:"facts"`
		Subject string         `json:"subject"`
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var src rules.FactSource
	switch {
	case req.Facts != nil && req.Subject != "":
		respondError(w, http.StatusBadRequest, "set either facts or subject, not both", nil)
		return
	case req.Facts != nil:
		m, err := facts.FromJSON(s.manager.Schema(), req.Facts)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid facts", err)
			return
		}
		src = m
	default:
		var err error
		src, err = s.backend.source(r.Context(), req.Subject)
		if err != nil {
			respondError(w, http.StatusBadRequest, "facts or subject is required", err)
			return
		}
	}

	run, err := s.manager.RunAll(r.Context(), src)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "evaluation cancelled", err)
		return
	}

	results := make([]resultResponse, 0, len(run.Results))
	for _, res := range run.Results {
		out := resultResponse{
			Rule:       res.RuleName,
			Outcome:    res.Outcome,
			ActionsRun: res.ActionsRun,
			Duration:   res.Duration.String(),
		}
		if res.Err != nil {
			out.ErrorKind = res.Kind().String()
			out.Error = res.Err.Error()
		}
		results = append(results, out)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"runId":          run.ID,
		"results":        results,
		"evaluationTime": run.Duration.String(),
	})
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
