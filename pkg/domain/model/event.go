package model

import (
	"time"

	"github.com/clipline/clipline/pkg/domain/types"
)

// ChangeEvent represents one detected change in a watched source.
// Immutable once emitted; consumed exactly once by the extractor.
type ChangeEvent struct {
	ID          string         // Unique event ID
	SourceID    types.SourceID // Which configured source emitted the event
	ExternalRef string         // Source-native identifier (file path, commit/path pair, upload name)
	DetectedAt  time.Time      // When the change was observed
	PayloadRef  string         // Scheme-prefixed handle to fetch raw content (file://, https://, github://)
	OriginalURL string         // Original page URL when known (upload events), informational
}
