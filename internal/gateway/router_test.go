package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vovarama1992/miniapp-relay/internal/avatar"
	"github.com/Vovarama1992/miniapp-relay/internal/relay"
	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

type fakePlatform struct {
	sends   int
	lookups int
	sendErr error
	listErr error
}

func (f *fakePlatform) Send(context.Context, telegram.Outgoing) error {
	f.sends++
	return f.sendErr
}

func (f *fakePlatform) ProfilePhotos(_ context.Context, userID int64, _ int) ([][]telegram.PhotoSize, error) {
	f.lookups++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if userID != 42 {
		return nil, nil
	}
	return [][]telegram.PhotoSize{{{FileID: "p", Width: 10, Height: 10}}}, nil
}

func (f *fakePlatform) FilePath(context.Context, string) (string, error) {
	f.lookups++
	return "photos/p.jpg", nil
}

func (f *fakePlatform) Download(context.Context, string) ([]byte, error) {
	f.lookups++
	return []byte("img"), nil
}

func newTestRouter(p *fakePlatform) http.Handler {
	r := NewRouter(Deps{
		Relay:          relay.NewHandler(relay.NewService(p, "1")),
		Avatar:         avatar.NewHandler(avatar.NewResolver(p), avatar.HandlerConfig{}),
		AvatarEncoding: avatar.EncodingURL,
		Cors:           DefaultCorsPolicy(),
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("handler bug") })
	return r
}

func serve(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder, label string) {
	t.Helper()
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("%s: Access-Control-Allow-Origin = %q", label, h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Allow-Methods") == "" || h.Get("Access-Control-Allow-Headers") == "" {
		t.Fatalf("%s: missing CORS triad: %v", label, h)
	}
}

func TestRouter_EveryResponseCarriesCORS(t *testing.T) {
	origin := map[string]string{"Origin": "https://earning-desire.example", "Content-Type": "application/json"}

	failing := &fakePlatform{sendErr: errors.New("down"), listErr: errors.New("down")}

	cases := []struct {
		label  string
		p      *fakePlatform
		method string
		target string
		body   string
		status int
	}{
		{"health", &fakePlatform{}, http.MethodGet, "/", "", http.StatusOK},
		{"send ok", &fakePlatform{}, http.MethodPost, "/send_to_admin", `{"message":"hi"}`, http.StatusOK},
		{"send fail", failing, http.MethodPost, "/send_to_admin", `{"message":"hi"}`, http.StatusInternalServerError},
		{"photo ok", &fakePlatform{}, http.MethodPost, "/get_user_photo", `{"user_id":"42"}`, http.StatusOK},
		{"photo fail", failing, http.MethodPost, "/get_photo_base64", `{"user_id":"42"}`, http.StatusInternalServerError},
		{"proxy bad id", &fakePlatform{}, http.MethodGet, "/proxy_photo", "", http.StatusBadRequest},
		{"not found", &fakePlatform{}, http.MethodGet, "/nope", "", http.StatusNotFound},
		{"wrong method", &fakePlatform{}, http.MethodGet, "/send_to_admin", "", http.StatusMethodNotAllowed},
		{"panic", &fakePlatform{}, http.MethodGet, "/boom", "", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		for _, hdr := range []map[string]string{origin, nil} {
			rec := serve(newTestRouter(tc.p), tc.method, tc.target, tc.body, hdr)
			if rec.Code != tc.status {
				t.Fatalf("%s: status = %d, want %d", tc.label, rec.Code, tc.status)
			}
			assertCORS(t, rec, tc.label)
		}
	}
}

func TestRouter_PreflightHasNoSideEffects(t *testing.T) {
	for _, target := range []string{"/send_to_admin", "/get_user_photo", "/get_photo_base64", "/proxy_photo?user_id=42"} {
		for _, hdr := range []map[string]string{
			{
				"Origin":                         "https://earning-desire.example",
				"Access-Control-Request-Method":  http.MethodPost,
				"Access-Control-Request-Headers": "content-type",
			},
			nil,
		} {
			p := &fakePlatform{}
			rec := serve(newTestRouter(p), http.MethodOptions, target, "", hdr)

			if rec.Code != http.StatusOK {
				t.Fatalf("OPTIONS %s: status = %d", target, rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Fatalf("OPTIONS %s: body = %q", target, rec.Body.String())
			}
			assertCORS(t, rec, "OPTIONS "+target)
			if p.sends != 0 || p.lookups != 0 {
				t.Fatalf("OPTIONS %s: side effects sends=%d lookups=%d", target, p.sends, p.lookups)
			}
		}
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	p := &fakePlatform{}
	h := newTestRouter(p)

	rec := serve(h, http.MethodPost, "/send_to_admin", `{"user_name":"Alice","user_id":"42","message":"hi"}`, nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"success"}` {
		t.Fatalf("send_to_admin: %d %s", rec.Code, rec.Body.String())
	}
	if p.sends != 1 {
		t.Fatalf("sends = %d", p.sends)
	}

	rec = serve(h, http.MethodPost, "/get_user_photo", `{"user_id":"999999"}`, nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"no_photo"}` {
		t.Fatalf("get_user_photo: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodGet, "/", "", nil)
	if rec.Body.String() != HealthBody {
		t.Fatalf("health body = %q", rec.Body.String())
	}
}
