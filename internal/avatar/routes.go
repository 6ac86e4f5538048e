package avatar

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the three avatar routes. enc selects the shape of
// /get_user_photo; the other two routes have fixed encodings.
func RegisterRoutes(r chi.Router, h *Handler, enc Encoding) {
	r.Post("/get_user_photo", h.Serve(enc))
	r.Post("/get_photo_base64", h.Serve(EncodingEmbedded))
	r.Get(ProxyPath, h.Serve(EncodingStream))
}
