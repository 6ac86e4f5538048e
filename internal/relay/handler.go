package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/Vovarama1992/miniapp-relay/internal/httpjson"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// SendToAdmin relays a message from the website to the admin chat. A missing
// or broken body is not an error: every field has a default. An oversized
// body is rejected so a real message is never replaced by the defaults.
func (h *Handler) SendToAdmin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserName json.RawMessage `json:"user_name"`
		UserID   json.RawMessage `json:"user_id"`
		Message  json.RawMessage `json:"message"`
	}

	if r.Body != nil {
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, httpjson.MaxBodyBytes)).Decode(&payload)
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			log.Printf("[relay] body exceeds %d bytes, rejected", tooLarge.Limit)
			httpjson.Write(w, http.StatusRequestEntityTooLarge, map[string]string{
				"status":  "error",
				"message": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		case err != nil && !errors.Is(err, io.EOF):
			log.Println("[relay] unreadable body, using defaults:", err)
		}
	}

	req := Request{
		UserName: httpjson.Text(payload.UserName),
		UserID:   httpjson.Text(payload.UserID),
		Message:  httpjson.Text(payload.Message),
	}

	if err := h.svc.Notify(r.Context(), req); err != nil {
		log.Println("[relay] send to admin failed:", err)
		httpjson.Write(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"status": "success"})
}
