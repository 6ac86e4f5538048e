package avatar

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Vovarama1992/miniapp-relay/internal/httpjson"
)

// Encoding is how a resolved avatar is handed to the website.
type Encoding string

const (
	EncodingURL      Encoding = "url"
	EncodingStream   Encoding = "stream"
	EncodingEmbedded Encoding = "embedded"
)

func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case EncodingURL, EncodingStream, EncodingEmbedded:
		return e, nil
	case "":
		return EncodingURL, nil
	case "base64", "data":
		return EncodingEmbedded, nil
	case "proxy":
		return EncodingStream, nil
	default:
		return "", fmt.Errorf("unknown avatar encoding %q", s)
	}
}

const ProxyPath = "/proxy_photo"

// Service is what the handler needs from the resolver.
type Service interface {
	Locate(ctx context.Context, userID int64, tier Tier) (Location, bool, error)
	Resolve(ctx context.Context, q Query) (Result, error)
}

type HandlerConfig struct {
	DefaultTier Tier
	// PublicBaseURL prefixes links produced by the url encoding. Empty means
	// derive it from the request.
	PublicBaseURL string
}

type Handler struct {
	svc         Service
	defaultTier Tier
	baseURL     string
}

func NewHandler(svc Service, cfg HandlerConfig) *Handler {
	return &Handler{
		svc:         svc,
		defaultTier: cfg.DefaultTier,
		baseURL:     strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Serve answers an avatar request in the given encoding. Every encoding runs
// the same lookup; only the response shape differs.
func (h *Handler) Serve(enc Encoding) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := h.parseQuery(r)
		if err != nil {
			httpjson.Write(w, http.StatusBadRequest, map[string]string{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}

		switch enc {
		case EncodingStream:
			h.stream(w, r, q)
		case EncodingEmbedded:
			h.embedded(w, r, q)
		default:
			h.link(w, r, q)
		}
	}
}

func (h *Handler) link(w http.ResponseWriter, r *http.Request, q Query) {
	_, ok, err := h.svc.Locate(r.Context(), q.UserID, q.Tier)
	if err != nil {
		h.fail(w, q, err)
		return
	}
	if !ok {
		noPhoto(w, http.StatusOK)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{
		"status": "success",
		"url":    h.proxyURL(r, q),
	})
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, q Query) {
	res, err := h.svc.Resolve(r.Context(), q)
	if err != nil {
		h.fail(w, q, err)
		return
	}
	if !res.Found {
		noPhoto(w, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Bytes); err != nil {
		log.Printf("[avatar] user=%d stream write: %v", q.UserID, err)
	}
}

func (h *Handler) embedded(w http.ResponseWriter, r *http.Request, q Query) {
	res, err := h.svc.Resolve(r.Context(), q)
	if err != nil {
		h.fail(w, q, err)
		return
	}
	if !res.Found {
		noPhoto(w, http.StatusOK)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{
		"status":     "success",
		"image_data": DataURI(res),
	})
}

func (h *Handler) fail(w http.ResponseWriter, q Query, err error) {
	log.Printf("[avatar] user=%d tier=%s lookup failed: %v", q.UserID, q.Tier, err)
	httpjson.Write(w, http.StatusInternalServerError, map[string]string{
		"status": "error",
		"error":  err.Error(),
	})
}

func noPhoto(w http.ResponseWriter, status int) {
	httpjson.Write(w, status, map[string]string{"status": "no_photo"})
}

func DataURI(res Result) string {
	return "data:" + res.ContentType + ";base64," + base64.StdEncoding.EncodeToString(res.Bytes)
}

// parseQuery reads user_id and size from the JSON body on POST, falling back
// to the query string.
func (h *Handler) parseQuery(r *http.Request) (Query, error) {
	values := r.URL.Query()
	rawID := values.Get("user_id")
	rawSize := values.Get("size")

	if r.Method == http.MethodPost && r.Body != nil {
		var body struct {
			UserID json.RawMessage `json:"user_id"`
			Size   string          `json:"size"`
		}
		err := json.NewDecoder(io.LimitReader(r.Body, httpjson.MaxBodyBytes)).Decode(&body)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Println("[avatar] invalid json body:", err)
		}
		if id := httpjson.Text(body.UserID); id != "" {
			rawID = id
		}
		if body.Size != "" {
			rawSize = body.Size
		}
	}

	id, err := ParseUserID(rawID)
	if err != nil {
		return Query{}, err
	}
	return Query{UserID: id, Tier: ParseTier(rawSize, h.defaultTier)}, nil
}

func (h *Handler) proxyURL(r *http.Request, q Query) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
			scheme = p
		}
		base = scheme + "://" + r.Host
	}

	v := url.Values{}
	v.Set("user_id", strconv.FormatInt(q.UserID, 10))
	v.Set("size", q.Tier.String())
	return base + ProxyPath + "?" + v.Encode()
}
