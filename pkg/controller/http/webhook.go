package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// SourceWebhook is the source ID attached to events from GitHub webhooks
const SourceWebhook types.SourceID = "github-webhook"

// WebhookHandler converts GitHub push webhooks into ChangeEvents
type WebhookHandler struct {
	secret    string
	submitter interfaces.EventSubmitter
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, submitter interfaces.EventSubmitter) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		submitter: submitter,
	}
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Hub-Signature-256")
	if !h.verifySignature(body, signature) {
		logger.Warn("Invalid webhook signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		logger.Error("Failed to parse webhook payload", "error", err)
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	submitted := 0
	switch e := payload.(type) {
	case *github.PushEvent:
		submitted, err = h.submitPush(r, e)
		if err != nil {
			logger.Error("Failed to enqueue push events", "error", err)
			writeError(w, err, http.StatusServiceUnavailable)
			return
		}
	default:
		logger.Info("Ignoring unsupported webhook event", "type", eventType)
	}

	logger.Info("Webhook processed",
		"type", eventType,
		"delivery", r.Header.Get("X-GitHub-Delivery"),
		"events_submitted", submitted,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":           "success",
		"events_submitted": submitted,
	}); err != nil {
		logger.Error("Failed to encode success response", "error", err)
	}
}

// submitPush emits one ChangeEvent per file touched by the push
func (h *WebhookHandler) submitPush(r *http.Request, push *github.PushEvent) (int, error) {
	repo := push.GetRepo()
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()
	if owner == "" || name == "" {
		return 0, goerr.New("push event has no repository")
	}

	submitted := 0
	for _, commit := range push.Commits {
		sha := commit.GetID()
		for _, path := range append(commit.Added, commit.Modified...) {
			event := &model.ChangeEvent{
				ID:          uuid.NewString(),
				SourceID:    SourceWebhook,
				ExternalRef: owner + "/" + name + "@" + sha + ":" + path,
				DetectedAt:  time.Now(),
				PayloadRef:  "github://" + owner + "/" + name + "/" + sha + "/" + path,
			}
			if err := h.submitter.Submit(r.Context(), event); err != nil {
				return submitted, goerr.Wrap(err, "failed to enqueue push event")
			}
			submitted++
		}
	}
	return submitted, nil
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
