package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/agent"
	"github.com/kitbuilder587/morvo/internal/domain"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode читает JSON тело с лимитом размера
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusOf: валидация 400, нет такого 404, лимит 429, поставщик 502/503, остальное 500
func statusOf(err error) int {
	var failure *agent.Failure
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrMalformedMessage),
		errors.Is(err, domain.ErrMissingClient),
		errors.Is(err, domain.ErrEmptyUserID),
		errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrInvalidDomain):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionInactive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, agent.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &failure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail пишет ошибку сервиса. Детали 5xx остаются в логе, клиент их не видит.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status < http.StatusInternalServerError {
		Error(w, status, err.Error())
		return
	}

	h.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrStateStore):
		msg = "conversation could not be saved, please retry"
	case status == http.StatusServiceUnavailable:
		msg = "backlink analysis is not configured"
	case status == http.StatusBadGateway:
		msg = "backlink provider is unavailable, please retry"
	}
	Error(w, status, msg)
}
