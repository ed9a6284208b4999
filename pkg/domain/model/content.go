package model

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/clipline/clipline/pkg/domain/types"
)

// ExtractedContent is the normalized text derived from a ChangeEvent
type ExtractedContent struct {
	Event *ChangeEvent
	Title string
	Text  string
	Hash  types.ContentHash
}

// HashText computes the content hash for normalized text.
// Deterministic: the same text always yields the same hash.
func HashText(text string) types.ContentHash {
	sum := sha256.Sum256([]byte(text))
	return types.ContentHash(hex.EncodeToString(sum[:]))
}

// EnrichedItem is extracted content plus the LLM-generated summary and tags
type EnrichedItem struct {
	Content  *ExtractedContent
	Summary  string
	Tags     []string
	Provider types.ProviderID // Which provider produced the summary
}
