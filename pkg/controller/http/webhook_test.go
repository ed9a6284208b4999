package http_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	controller "github.com/clipline/clipline/pkg/controller/http"
)

// generateSignature generates HMAC-SHA256 signature for testing
func generateSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func pushPayload() []byte {
	payload := map[string]any{
		"ref": "refs/heads/main",
		"repository": map[string]any{
			"name":  "notes",
			"owner": map[string]any{"login": "octocat"},
		},
		"commits": []map[string]any{
			{
				"id":       "abc123",
				"added":    []string{"clips/a.html"},
				"modified": []string{"clips/b.html"},
				"removed":  []string{"clips/old.html"},
			},
		},
	}
	data, _ := json.Marshal(payload)
	return data
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name           string
		signature      func(payload []byte) string
		wantStatusCode int
	}{
		{
			name:           "Valid signature",
			signature:      func(p []byte) string { return generateSignature(secret, p) },
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "Invalid signature",
			signature:      func([]byte) string { return "sha256=invalid" },
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "Missing signature",
			signature:      func([]byte) string { return "" },
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := &submitterMock{}
			handler := controller.NewWebhookHandler(secret, submitter)

			payload := pushPayload()
			req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", "push")
			req.Header.Set("X-GitHub-Delivery", "test-delivery")
			req.Header.Set("X-Hub-Signature-256", tt.signature(payload))

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			gt.Equal(t, w.Code, tt.wantStatusCode)
			if tt.wantStatusCode != http.StatusOK {
				gt.Array(t, submitter.Events()).Length(0)
			}
		})
	}
}

func TestWebhookHandler_PushEvent(t *testing.T) {
	secret := "test-secret"
	submitter := &submitterMock{}
	handler := controller.NewWebhookHandler(secret, submitter)

	payload := pushPayload()
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	handler.Handle(w, req)

	gt.Equal(t, w.Code, http.StatusOK)

	var response map[string]any
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	gt.Equal(t, response["status"], "success")
	submitted := gt.Cast[float64](t, response["events_submitted"])
	gt.Equal(t, submitted, float64(2))

	// Removed files do not produce events
	events := submitter.Events()
	gt.Array(t, events).Length(2)
	gt.Equal(t, events[0].SourceID, controller.SourceWebhook)
	gt.Equal(t, events[0].PayloadRef, "github://octocat/notes/abc123/clips/a.html")
	gt.Equal(t, events[1].PayloadRef, "github://octocat/notes/abc123/clips/b.html")
}

func TestWebhookHandler_IgnoresUnsupportedEvent(t *testing.T) {
	secret := "test-secret"
	submitter := &submitterMock{}
	handler := controller.NewWebhookHandler(secret, submitter)

	payload := []byte(`{"zen":"Keep it logically awesome."}`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "ping")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	handler.Handle(w, req)

	gt.Equal(t, w.Code, http.StatusOK)
	gt.Array(t, submitter.Events()).Length(0)
}
