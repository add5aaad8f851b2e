// Package http exposes the progression engine as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/ferrobraz/parley/internal/runtime"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Engine defines the progression operations the handler needs.
type Engine interface {
	Open(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, bool, error)
	Reveal(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error)
	SelectOption(ctx context.Context, key domain.ConversationKey, option domain.Option) (domain.Presentation, error)
	CheckProgression(ctx context.Context, key domain.ConversationKey) (domain.Presentation, bool, error)
	Presentation(ctx context.Context, key domain.ConversationKey) (domain.Presentation, error)
	Partners() []string
}

// Server implements the JSON API over an Engine.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Get("/api/partners", s.handlePartners)
	r.Route("/api/users/{user}/conversations/{partner}", func(r chi.Router) {
		r.Post("/open", s.handleOpen)
		r.Post("/reveal", s.handleReveal)
		r.Post("/select", s.handleSelect)
		r.Post("/recheck", s.handleRecheck)
		r.Get("/", s.handlePresentation)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// openResponse reports the persisted state plus whether the current node
// still awaits its one-shot reveal; the client performs the reveal after its
// typing delay.
type openResponse struct {
	State         *domain.ConversationState `json:"state"`
	PendingReveal bool                      `json:"pending_reveal"`
}

type recheckResponse struct {
	Presentation domain.Presentation `json:"presentation"`
	Advanced     bool                `json:"advanced"`
}

func conversationKey(r *http.Request) domain.ConversationKey {
	return domain.ConversationKey{
		UserID:    chi.URLParam(r, "user"),
		PartnerID: chi.URLParam(r, "partner"),
	}
}

func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{"partners": s.engine.Partners()})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	state, pending, err := s.engine.Open(r.Context(), conversationKey(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, openResponse{State: state, PendingReveal: pending})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Reveal(r.Context(), conversationKey(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"state": state})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var option domain.Option
	if err := json.NewDecoder(r.Body).Decode(&option); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid option payload"})
		return
	}

	pres, err := s.engine.SelectOption(r.Context(), conversationKey(r), option)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"presentation": pres})
}

func (s *Server) handleRecheck(w http.ResponseWriter, r *http.Request) {
	pres, advanced, err := s.engine.CheckProgression(r.Context(), conversationKey(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, recheckResponse{Presentation: pres, Advanced: advanced})
}

func (s *Server) handlePresentation(w http.ResponseWriter, r *http.Request) {
	pres, err := s.engine.Presentation(r.Context(), conversationKey(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"presentation": pres})
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

// fail maps engine errors onto HTTP statuses. Stalled or blocked
// conversations are normal presentation states, never errors; only genuine
// lookup and persistence failures land here.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPartnerNotFound),
		errors.Is(err, domain.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, runtime.ErrOptionNotOffered):
		status = http.StatusConflict
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}
