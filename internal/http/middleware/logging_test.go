package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestScrub(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"email", "contact jo@example.com now", "contact [REDACTED:email] now"},
		{"phone", "call 202-555-0173 today", "call [REDACTED:phone] today"},
		{"uuid", "sid=a1b2c3d4-1111-4222-8333-444455556666", "sid=[REDACTED:id]"},
		{"clean", "nothing sensitive here", "nothing sensitive here"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scrub(tc.in); got != tc.want {
				t.Fatalf("scrub(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRequestID_MintsAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Minted when absent.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected minted uuid, got %q", got)
	}

	// Reused when the client supplies one.
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Fatalf("request id not propagated, got %q", got)
	}
}

func TestLogger_AttachesRequestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) {
		if LoggerFrom(c) == nil {
			t.Error("LoggerFrom returned nil inside handler")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping?email=jo@example.com", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatal("fallback logger is nil")
	}
}

func TestRecovery_ConvertsPanicToJSON500(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("disabled truncation = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short input = %q", got)
	}
}
