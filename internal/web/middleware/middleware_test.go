package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "untrusted proxy keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.9:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.9:5000",
		},
		{
			name:       "trusted proxy uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "1.2.3.4",
		},
		{
			name:       "trusted bare IP uses first X-Forwarded-For",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"},
			want:       "5.6.7.8",
		},
		{
			name:       "invalid forwarded value ignored",
			trusted:    []string{"127.0.0.1/32"},
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "127.0.0.1:5000",
		},
		{
			name:       "no trusted proxies configured",
			trusted:    nil,
			remoteAddr: "127.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "127.0.0.1:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		required bool
		keys     []string
		key      string
		want     int
	}{
		{"disabled", false, nil, "", http.StatusNoContent},
		{"missing key", true, []string{"k1"}, "", http.StatusUnauthorized},
		{"wrong key", true, []string{"k1", "k2"}, "nope", http.StatusForbidden},
		{"second key accepted", true, []string{"k1", "k2"}, "k2", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.required, tt.keys)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	var inner *responseWriter
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("recorded status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if inner.status != http.StatusTeapot {
		t.Errorf("captured status = %d, want %d", inner.status, http.StatusTeapot)
	}
	if inner.bytes != 5 {
		t.Errorf("captured bytes = %d, want 5", inner.bytes)
	}
}
