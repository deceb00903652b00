package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/middleware"
)

func TestLogger(t *testing.T) {
	serve := func(t *testing.T, status int, path string) []observer.LoggedEntry {
		t.Helper()
		core, logs := observer.New(zapcore.InfoLevel)
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		req := httptest.NewRequest(http.MethodPost, path, nil)
		middleware.Logger(zap.New(core))(next).ServeHTTP(httptest.NewRecorder(), req)
		return logs.AllUntimed()
	}

	t.Run("logs status and path", func(t *testing.T) {
		entries := serve(t, http.StatusCreated, "/api/transfers")
		if len(entries) != 1 {
			t.Fatalf("Expected 1 log entry, got %d", len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["status"] != int64(http.StatusCreated) || fields["path"] != "/api/transfers" {
			t.Errorf("Unexpected fields: %v", fields)
		}
		if entries[0].Level != zapcore.InfoLevel {
			t.Errorf("Expected info level, got %s", entries[0].Level)
		}
	})

	t.Run("logs server errors at error level", func(t *testing.T) {
		entries := serve(t, http.StatusInternalServerError, "/api/transfers")
		if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
			t.Errorf("Expected one error entry, got %+v", entries)
		}
	})

	t.Run("strips line breaks from the path", func(t *testing.T) {
		entries := serve(t, http.StatusOK, "/api/shares%0d%0aforged")
		if got := entries[0].ContextMap()["path"]; got != "/api/sharesforged" {
			t.Errorf("Expected sanitized path, got %q", got)
		}
	})
}
