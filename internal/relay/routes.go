package relay

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/send_to_admin", h.SendToAdmin)
}
