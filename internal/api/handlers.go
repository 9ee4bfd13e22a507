package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/dailyhi/internal/pkg/logger"
	"github.com/ignite/dailyhi/internal/repository/postgres"
	"github.com/ignite/dailyhi/internal/signup"
	"github.com/ignite/dailyhi/internal/validator"
)

type subscribeRequest struct {
	Email    string `json:"email"`
	Timezone *int   `json:"timezone,omitempty"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := s.signup.Subscribe(r.Context(), req.Email, req.Timezone)
	switch {
	case errors.Is(err, validator.ErrInvalidEmail):
		respondError(w, http.StatusBadRequest, "invalid email address")
	case errors.Is(err, signup.ErrInvalidOffset):
		respondError(w, http.StatusBadRequest, "timezone offset must be between -12 and +14")
	case errors.Is(err, postgres.ErrDuplicate):
		respondError(w, http.StatusConflict, "email is already subscribed")
	case err != nil:
		logger.Error("subscribe failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "subscription failed")
	default:
		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"email":    sub.Email,
			"timezone": sub.Timezone,
			"verified": sub.Verified,
		})
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	sub, err := s.signup.Verify(r.Context(), code)
	switch {
	case errors.Is(err, signup.ErrUnknownCode):
		respondError(w, http.StatusNotFound, "unknown verification code")
	case err != nil:
		logger.Error("verify failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "verification failed")
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"email":    sub.Email,
			"verified": sub.Verified,
		})
	}
}

type timezoneRequest struct {
	Timezone int `json:"timezone"`
}

func (s *Server) handleUpdateTimezone(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req timezoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := s.signup.UpdateTimezone(r.Context(), code, req.Timezone)
	switch {
	case errors.Is(err, signup.ErrInvalidOffset):
		respondError(w, http.StatusBadRequest, "timezone offset must be between -12 and +14")
	case errors.Is(err, signup.ErrUnknownCode):
		respondError(w, http.StatusNotFound, "unknown verification code")
	case err != nil:
		logger.Error("timezone update failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "update failed")
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"email":    sub.Email,
			"timezone": sub.Timezone,
		})
	}
}

type deliverRequest struct {
	At string `json:"at,omitempty"`
}

// handleDeliver runs one delivery pass. The optional "at" instant
// override exists for testing buckets without waiting for the clock.
func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	utc := time.Now().UTC()

	if r.Body != nil && r.ContentLength != 0 {
		var req deliverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.At != "" {
			parsed, err := time.Parse(time.RFC3339, req.At)
			if err != nil {
				respondError(w, http.StatusBadRequest, "at must be RFC3339")
				return
			}
			utc = parsed.UTC()
		}
	}

	report, err := s.scheduler.RunOnce(r.Context(), utc)
	if err != nil {
		logger.Error("delivery run failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "delivery run failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]string{"status": "ok"}
	status := http.StatusOK

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			health["database"] = err.Error()
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			health["database"] = "ok"
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			health["redis"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "ok"
		}
	}

	respondJSON(w, status, health)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encode response", "error", err.Error())
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
