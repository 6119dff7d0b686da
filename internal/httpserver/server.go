package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shipmux/rate-router/internal/auth"
	"github.com/shipmux/rate-router/internal/ledger"
	"github.com/shipmux/rate-router/internal/webhook"
)

type Server struct {
	service   *webhook.Service
	store     ledger.Store
	jwtSecret string
}

func New(service *webhook.Service, store ledger.Store, jwtSecret string) *Server {
	return &Server{
		service:   service,
		store:     store,
		jwtSecret: jwtSecret,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/webhooks/orders", s.handleWebhook)
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(s.jwtSecret))
		r.Get("/decisions", s.handleDecisions)
		r.Get("/decisions/{orderID}", s.handleDecision)
	})

	return r
}

// handleWebhook acknowledges inside the platform's ack window: the pipeline
// runs asynchronously and a 2xx goes back regardless of its outcome.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var event webhook.Event
	if err := decodeJSON(w, r, &event); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	accepted := s.service.Accept(event)
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": accepted,
	})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	f := ledger.Filter{
		Carrier: r.URL.Query().Get("carrier"),
		OrgID:   r.URL.Query().Get("orgId"),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		f.To = t
	}

	decisions, err := s.store.Query(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sub := auth.Subject(r.Context()); sub != "" {
		log.Printf("[httpserver] decisions query by %s returned %d rows", sub, len(decisions))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": decisions,
		"summary":   ledger.Summarize(decisions),
	})
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	d, err := s.store.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "decision not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
