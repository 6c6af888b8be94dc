package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/goal-tracker/internal/auth"
	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/service"
)

const maxBodyBytes = 1 << 20

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	r.Route("/api/goals", func(r chi.Router) {
		r.Use(s.verifier.Middleware)

		r.Get("/", s.listGoalsHandler)
		r.Post("/", s.createGoalHandler)
		r.Get("/stats/overview", s.statsHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getGoalHandler)
			r.Put("/", s.updateGoalHandler)
			r.Delete("/", s.deleteGoalHandler)

			r.Post("/milestones", s.addMilestoneHandler)
			r.Put("/milestones/{milestoneID}", s.updateMilestoneHandler)
			r.Delete("/milestones/{milestoneID}", s.deleteMilestoneHandler)

			r.Post("/notes", s.addNoteHandler)
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil || s.backend == "memory" {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "up", "backend": "memory"})
		return
	}

	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) listGoalsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListGoalsRequest{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Priority: q.Get("priority"),
		Search:   q.Get("search"),
	}

	verr := &domain.ValidationError{}
	req.Page = positiveIntParam(q.Get("page"), "page", "Page must be a positive integer", verr)
	req.Limit = positiveIntParam(q.Get("limit"), "limit", "Limit must be between 1 and 100", verr)
	if verr.OrNil() != nil {
		respondWithServiceError(w, verr, "Failed to retrieve goals")
		return
	}

	page, err := s.goalService.ListGoals(r.Context(), auth.OwnerID(r.Context()), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve goals")
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// positiveIntParam parses an optional query parameter. Absent values are 0 so
// the service applies its default.
func positiveIntParam(raw, field, message string, verr *domain.ValidationError) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		verr.Add(field, message)
		return 0
	}
	return n
}

func (s *Server) createGoalHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := s.goalService.CreateGoal(r.Context(), auth.OwnerID(r.Context()), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create goal")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{"goal": goal})
}

func (s *Server) getGoalHandler(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goalService.GetGoal(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve goal")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) updateGoalHandler(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := s.goalService.UpdateGoal(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update goal")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) deleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	err := s.goalService.DeleteGoal(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	var req service.MilestoneInput
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := s.goalService.AddMilestone(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add milestone")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{"goal": goal})
}

func (s *Server) updateMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateMilestoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := s.goalService.UpdateMilestone(r.Context(), auth.OwnerID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "milestoneID"), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update milestone")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) deleteMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goalService.DeleteMilestone(r.Context(), auth.OwnerID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "milestoneID"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to delete milestone")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) addNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AddNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := s.goalService.AddNote(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add note")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{"goal": goal})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.goalService.Stats(r.Context(), auth.OwnerID(r.Context()))
	if err != nil {
		respondWithServiceError(w, err, "Failed to compute statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"stats": summary})
}

// decodeJSON reads a single JSON object into dst, answering 400 on any
// malformed body. It reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
	case errors.As(err, &maxBytesError):
		respondWithError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
	default:
		slog.Error("error decoding request body", "error", err, "path", r.URL.Path)
		respondWithError(w, http.StatusInternalServerError, "Error processing request")
	}
	return false
}

// respondWithServiceError maps domain errors to status codes. Anything
// unexpected is logged and reported with the generic fallback message.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation errors",
			"errors": verr.Fields,
		})
	case errors.Is(err, domain.ErrGoalNotFound):
		respondWithError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, domain.ErrMilestoneNotFound):
		respondWithError(w, http.StatusNotFound, "Milestone not found")
	default:
		slog.Error(fallback, "error", err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("error marshaling JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
