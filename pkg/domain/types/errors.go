package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify pipeline failures. Stage code attaches these via
// goerr.T; the pipeline routes on them (drop vs retry vs isolate).
var (
	// TagExtraction marks bad or empty content. Not retried: re-reading an
	// unchanged source yields the same result.
	TagExtraction = goerr.NewTag("extraction")

	// TagEnrichment marks failure of all configured LLM providers. Retried
	// with backoff before the item is marked failed.
	TagEnrichment = goerr.NewTag("enrichment")

	// TagSink marks a single sink delivery failure. Retried independently
	// of sibling sinks.
	TagSink = goerr.NewTag("sink")

	// TagConfig marks a configuration-level failure, fatal to the component
	// that raised it.
	TagConfig = goerr.NewTag("config")
)

var (
	// ErrEmptyContent is returned when stripping leaves no text to process
	ErrEmptyContent = goerr.New("content is empty after normalization", goerr.T(TagExtraction))
)
