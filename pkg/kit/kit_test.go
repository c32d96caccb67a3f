package kit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestIPRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatalf("first two hits must pass")
	}
	if l.Allow("1.1.1.1") {
		t.Fatalf("third hit within window must be limited")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatalf("other ip must not be limited")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("1.1.1.1") {
		t.Fatalf("hit after window must pass")
	}
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(5, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.Allow("10.0.0." + strconv.Itoa(i))
	}
	if got := l.tracked(); got != 100 {
		t.Fatalf("tracked=%d", got)
	}

	now = now.Add(2 * time.Minute)
	l.Allow("192.0.2.1")
	if got := l.tracked(); got != 1 {
		t.Fatalf("idle clients kept: tracked=%d", got)
	}
}

func TestClientIP(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := l.clientIP(r); got != "10.0.0.1" {
		t.Fatalf("untrusted forwarded header used: ip=%q", got)
	}

	l.TrustForwardedFor = true
	if got := l.clientIP(r); got != "203.0.113.7" {
		t.Fatalf("forwarded ip=%q", got)
	}
}

func TestIPRateLimiter_ForwardedForRotationDoesNotBypass(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := make([]int, 0, 2)
	for _, xff := range []string{"198.51.100.1", "198.51.100.2"} {
		r := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
		r.RemoteAddr = "10.0.0.9:4000"
		r.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes=%v", codes)
	}
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "no token configured", token: "", header: "Bearer ", want: http.StatusForbidden},
		{name: "missing header", token: "t", header: "", want: http.StatusForbidden},
		{name: "wrong scheme", token: "t", header: "Basic t", want: http.StatusForbidden},
		{name: "wrong token", token: "t", header: "Bearer x", want: http.StatusForbidden},
		{name: "valid", token: "t", header: "Bearer t", want: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			MetricsAuth(tc.token)(ok).ServeHTTP(rec, r)

			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("generated id=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "abc" {
		t.Fatalf("kept id=%q", seen)
	}
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": "7"})
	})).ServeHTTP(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	var e ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Error != "not found" || e.RequestID == "" {
		t.Fatalf("error=%+v", e)
	}
}
