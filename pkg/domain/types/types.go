package types

// Version is the application version, overridden at build time via ldflags
var Version = "dev"

// SourceID identifies a configured change source (a watched root, a repository, the upload endpoint)
type SourceID string

// SinkID identifies a configured destination sink
type SinkID string

const (
	SinkNotion   SinkID = "notion"
	SinkTelegram SinkID = "telegram"
	SinkSlack    SinkID = "slack"
)

// ProviderID identifies an LLM provider used for enrichment
type ProviderID string

const (
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
)

// ContentHash is the SHA-256 digest of normalized content text, hex encoded.
// It is the dedup key: identical text from different refs collapses to one hash.
type ContentHash string
