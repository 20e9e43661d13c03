package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kitbuilder587/morvo/internal/domain"
)

const channelHTTP = "http"

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.chat.Handle(r.Context(), channelHTTP, domain.ChatRequest{
		Message:  req.Message,
		ClientID: req.ClientID,
		UserID:   req.UserID,
		Context:  req.Context,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toMessageResponse(resp))
}

func (h *Handler) GetActiveConversation(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	session, err := h.conversations.Active(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) ListTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.conversations.Turns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"turns": toTurnResponses(turns)})
}

func (h *Handler) CompleteConversation(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	// тело необязательное
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := chi.URLParam(r, "id")
	if err := h.conversations.Complete(r.Context(), id, req.Reason); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.conversations.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toProfileBody(p))
}

func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var body profileBody
	if err := decode(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := chi.URLParam(r, "userID")
	if body.UserID != "" && body.UserID != userID {
		Error(w, http.StatusBadRequest, "user_id does not match the path")
		return
	}

	p := body.toDomain(userID)
	if err := h.profiles.Upsert(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toProfileBody(p))
}

func (h *Handler) BacklinkHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	items, err := h.history.History(r.Context(), chi.URLParam(r, "domain"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"analyses": toHistory(items)})
}

func (h *Handler) AnalyzeDomain(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := h.history.Analyze(r.Context(), chi.URLParam(r, "domain"), strings.TrimSpace(req.UserID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toAnalyzeResponse(report))
}
