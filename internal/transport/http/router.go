package http

import (
	"net/http"
	"time"

	httpmw "github.com/fluent-freelance/messaging-service/internal/transport/http/middleware"
	"github.com/fluent-freelance/messaging-service/internal/transport/ws"
	"github.com/fluent-freelance/messaging-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, wsServer *ws.Server, verifier httpmw.TokenVerifier, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(httputil.MiddlewareRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", httputil.HeaderRequestID},
		AllowCredentials: true,
	}))

	// WS endpoint: the authenticate frame carries all protocol selection.
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(verifier))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Get("/presence", h.GetPresence)
		pr.Route("/conversations/{id}", func(cr chi.Router) {
			cr.Get("/", h.GetConversation)
			cr.Get("/messages", h.GetMessages)
			cr.Post("/interview", h.ScheduleInterview)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
