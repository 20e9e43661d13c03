package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/metrics"
	"github.com/kitbuilder587/morvo/internal/service"
)

// maxBodySize - лимит тела запроса (1MB)
const maxBodySize = 1 << 20

type Deps struct {
	Chat          *service.ChatService
	Conversations *service.ConversationService
	Profiles      *service.ProfileService
	History       *service.BacklinkHistoryService
	Metrics       *metrics.Metrics // nil = без /metrics
	Logger        *zap.Logger
}

type Handler struct {
	chat          *service.ChatService
	conversations *service.ConversationService
	profiles      *service.ProfileService
	history       *service.BacklinkHistoryService
	logger        *zap.Logger
}

// NewRouter собирает chi-роутер со всеми маршрутами API
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &Handler{
		chat:          deps.Chat,
		conversations: deps.Conversations,
		profiles:      deps.Profiles,
		history:       deps.History,
		logger:        deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat/message", h.PostMessage)

		r.Get("/conversations/active", h.GetActiveConversation)
		r.Get("/conversations/{id}/turns", h.ListTurns)
		r.Post("/conversations/{id}/complete", h.CompleteConversation)

		r.Get("/profiles/{userID}", h.GetProfile)
		r.Put("/profiles/{userID}", h.PutProfile)

		r.Get("/seo/{domain}/history", h.BacklinkHistory)
		r.Post("/seo/{domain}/analyze", h.AnalyzeDomain)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
		})
	}
}
