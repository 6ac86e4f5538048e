package gateway

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CorsPolicy is the one header set every response carries. There is no
// per-route variation.
type CorsPolicy struct {
	AllowedOrigin  string
	AllowedMethods []string
	AllowedHeaders []string
}

func DefaultCorsPolicy() CorsPolicy {
	return CorsPolicy{
		AllowedOrigin:  "*",
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
	}
}

// Handler stamps the header triad on every response and lets go-chi/cors
// negotiate browser pre-flights. Every OPTIONS request, pre-flight or not,
// then ends in Preflight before it reaches a route.
func (p CorsPolicy) Handler() func(http.Handler) http.Handler {
	negotiate := cors.Handler(cors.Options{
		AllowedOrigins:     []string{p.AllowedOrigin},
		AllowedMethods:     p.AllowedMethods,
		AllowedHeaders:     p.AllowedHeaders,
		MaxAge:             300,
		OptionsPassthrough: true,
	})

	methods := strings.Join(p.AllowedMethods, ", ")
	headers := strings.Join(p.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		inner := negotiate(Preflight(next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", p.AllowedOrigin)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			inner.ServeHTTP(w, r)
		})
	}
}

// Preflight answers OPTIONS with an empty 200 and no side effect.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
