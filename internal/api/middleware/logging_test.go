package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogging_RecordsStatusAndScrubs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/scans?limit=5&api_key=abc", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"status=404", "limit=5", "api_key=REDACTED"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "abc") {
		t.Errorf("log output leaked secret: %q", out)
	}
}

func TestStatusWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}
	sw.Flush()
	if !rec.Flushed {
		t.Error("Flush not forwarded to the underlying writer")
	}
}

func TestScrubQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"path=/tmp", "path=/tmp"},
		{"token=x&path=/tmp", "token=REDACTED&path=/tmp"},
		{"flag", "flag"},
	}
	for _, tt := range tests {
		if got := scrubQuery(tt.in); got != tt.want {
			t.Errorf("scrubQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
