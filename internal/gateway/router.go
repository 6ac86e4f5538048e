package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Vovarama1992/miniapp-relay/internal/avatar"
	"github.com/Vovarama1992/miniapp-relay/internal/relay"
)

const HealthBody = "Bot Backend Online. Use the Telegram Bot."

type Deps struct {
	Relay          *relay.Handler
	Avatar         *avatar.Handler
	AvatarEncoding avatar.Encoding
	Cors           CorsPolicy
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	// CORS first so recovered panics and 404/405 still carry the headers.
	r.Use(d.Cors.Handler())
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(HealthBody))
	})

	relay.RegisterRoutes(r, d.Relay)
	avatar.RegisterRoutes(r, d.Avatar, d.AvatarEncoding)

	return r
}
