package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondJSON(t *testing.T) {
	t.Run("sets content-type and status code correctly", func(t *testing.T) {
		w := httptest.NewRecorder()

		RespondJSON(w, http.StatusCreated, map[string]string{"message": "success"})

		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d", w.Code)
		}
		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", w.Header().Get("Content-Type"))
		}
	})

	t.Run("handles nil data without body", func(t *testing.T) {
		w := httptest.NewRecorder()

		RespondJSON(w, http.StatusNoContent, nil)

		if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
			t.Errorf("Expected empty 204, got %d with %q", w.Code, w.Body.String())
		}
	})

	t.Run("logs un-encodable data", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		restore := zap.ReplaceGlobals(zap.New(core))
		defer restore()

		w := httptest.NewRecorder()
		// Channels cannot be JSON encoded
		RespondJSON(w, http.StatusOK, map[string]any{"channel": make(chan int)})

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if logs.Len() != 1 {
			t.Errorf("Expected 1 logged encoding error, got %d", logs.Len())
		}
	})
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()

	RespondError(w, http.StatusConflict, "failed to post transaction", map[string]string{"amount": "too large"})

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if w.Code != http.StatusConflict || body.Error != "failed to post transaction" {
		t.Errorf("Unexpected response %d: %+v", w.Code, body)
	}
	if details, ok := body.Details.(map[string]any); !ok || details["amount"] != "too large" {
		t.Errorf("Unexpected details: %#v", body.Details)
	}
}
