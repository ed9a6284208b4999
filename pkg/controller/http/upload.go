package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// SourceUpload is the source ID attached to events from the upload endpoint
const SourceUpload types.SourceID = "upload"

// UploadHandler accepts clip uploads: a multipart form with the clipped
// HTML file and an optional original URL.
type UploadHandler struct {
	token       string
	dir         string
	maxSize     int64
	allowedExts []string
	limiter     *clientLimiter
	submitter   interfaces.EventSubmitter
}

// NewUploadHandler creates an upload handler from server configuration
func NewUploadHandler(cfg *config, submitter interfaces.EventSubmitter) *UploadHandler {
	return &UploadHandler{
		token:       cfg.apiToken,
		dir:         cfg.uploadDir,
		maxSize:     cfg.maxUploadSize,
		allowedExts: cfg.allowedExts,
		limiter:     newClientLimiter(cfg.uploadRate, cfg.uploadBurst),
		submitter:   submitter,
	}
}

// Handle processes one upload request
func (h *UploadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	if !h.verifyToken(r) {
		writeError(w, goerr.New("invalid authentication token"), http.StatusUnauthorized)
		return
	}

	if !h.limiter.Allow(r.RemoteAddr) {
		writeError(w, goerr.New("rate limit exceeded"), http.StatusTooManyRequests)
		return
	}

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		writeError(w, goerr.Wrap(err, "invalid multipart form"), http.StatusBadRequest)
		return
	}

	file, header, err := h.formFile(r)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := header.Filename
	if filepath.Ext(filename) == "" {
		filename += ".html"
	}
	if !h.allowedExt(filename) {
		writeError(w, goerr.New("file type not allowed",
			goerr.V("allowed", h.allowedExts)), http.StatusBadRequest)
		return
	}
	if header.Size > h.maxSize {
		writeError(w, goerr.New("file too large",
			goerr.V("max_bytes", h.maxSize)), http.StatusBadRequest)
		return
	}

	path, err := h.save(file, filename)
	if err != nil {
		logger.Error("failed to save upload", "error", err)
		writeError(w, goerr.New("failed to store upload"), http.StatusInternalServerError)
		return
	}

	originalURL := r.FormValue("url")
	if originalURL == "" {
		originalURL = model.ParseClipFilename(filename)
	}

	event := &model.ChangeEvent{
		ID:          uuid.NewString(),
		SourceID:    SourceUpload,
		ExternalRef: filename,
		DetectedAt:  time.Now(),
		PayloadRef:  "file://" + path,
		OriginalURL: originalURL,
	}

	if err := h.submitter.Submit(ctx, event); err != nil {
		logger.Error("failed to enqueue upload event", "error", err)
		writeError(w, goerr.New("pipeline unavailable"), http.StatusServiceUnavailable)
		return
	}

	logger.Info("clip accepted",
		"filename", filename,
		"event_id", event.ID,
		"original_url", originalURL,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":   "accepted",
		"event_id": event.ID,
	}); err != nil {
		logger.Error("failed to encode upload response", "error", err)
	}
}

func (h *UploadHandler) verifyToken(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	got, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

// formFile finds the uploaded file regardless of its field name
func (h *UploadHandler) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil, goerr.New("no multipart form data")
	}
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				return nil, nil, goerr.Wrap(err, "failed to open uploaded file")
			}
			return file, header, nil
		}
	}
	return nil, nil, goerr.New("no file content found in form data")
}

func (h *UploadHandler) allowedExt(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range h.allowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// save writes the upload under a random prefix to avoid collisions
func (h *UploadHandler) save(file multipart.File, filename string) (string, error) {
	if err := os.MkdirAll(h.dir, 0700); err != nil {
		return "", goerr.Wrap(err, "failed to create upload dir")
	}

	prefix := make([]byte, 8)
	if _, err := rand.Read(prefix); err != nil {
		return "", goerr.Wrap(err, "failed to generate upload prefix")
	}

	path := filepath.Join(h.dir, hex.EncodeToString(prefix)+"_"+filepath.Base(filename))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, h.maxSize)); err != nil {
		os.Remove(path)
		return "", goerr.Wrap(err, "failed to write upload file")
	}
	return path, nil
}
