package usecase

import (
	"context"
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

type extractor struct {
	fetchers map[string]interfaces.Fetcher
}

// NewExtractor creates a content extractor that resolves payload refs through
// the given fetchers, keyed by ref scheme.
func NewExtractor(fetchers ...interfaces.Fetcher) interfaces.Extractor {
	byScheme := make(map[string]interfaces.Fetcher)
	for _, f := range fetchers {
		for _, scheme := range f.Schemes() {
			byScheme[scheme] = f
		}
	}
	return &extractor{fetchers: byScheme}
}

// Extract fetches the raw payload and normalizes it to plain text. The output
// is deterministic for identical input bytes so the content hash is stable.
func (x *extractor) Extract(ctx context.Context, event *model.ChangeEvent) (*model.ExtractedContent, error) {
	scheme, _, ok := strings.Cut(event.PayloadRef, "://")
	if !ok {
		return nil, goerr.New("payload ref has no scheme",
			goerr.T(types.TagExtraction), goerr.V("ref", event.PayloadRef))
	}

	fetcher, ok := x.fetchers[scheme]
	if !ok {
		return nil, goerr.New("no fetcher for payload ref scheme",
			goerr.T(types.TagExtraction), goerr.V("scheme", scheme))
	}

	raw, err := fetcher.Fetch(ctx, event.PayloadRef)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch payload",
			goerr.T(types.TagExtraction), goerr.V("ref", event.PayloadRef))
	}

	body := string(raw)
	title := ""
	if looksLikeHTML(body) {
		title = htmlTitle(body)
		body = htmlToText(body)
	} else {
		body = normalizeText(body)
	}

	if body == "" {
		return nil, goerr.Wrap(types.ErrEmptyContent, "nothing to process",
			goerr.V("ref", event.PayloadRef))
	}

	if title == "" {
		title = fallbackTitle(event)
	}

	return &model.ExtractedContent{
		Event: event,
		Title: title,
		Text:  body,
		Hash:  model.HashText(body),
	}, nil
}

var (
	reDocType  = regexp.MustCompile(`(?i)<!doctype\s+html|<html[\s>]|<body[\s>]|<div[\s>]|<p[\s>]`)
	reTitle    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reH1       = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	reDropTags = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|iframe|template)[^>]*>.*?</(script|style|noscript|head|svg|iframe|template)>`)
	reComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBlockTag = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|ul|ol|tr|td|th|table|blockquote|pre|section|article|header|footer|nav)[^>]*>`)
	reAnyTag   = regexp.MustCompile(`<[^>]+>`)
	reSpaces   = regexp.MustCompile(`[ \t\r\x{00a0}]+`)
)

func looksLikeHTML(s string) bool {
	head := s
	if len(head) > 1024 {
		head = head[:1024]
	}
	return reDocType.MatchString(head)
}

// htmlTitle extracts a display title from the <title> tag or first <h1>
func htmlTitle(content string) string {
	for _, re := range []*regexp.Regexp{reTitle, reH1} {
		if m := re.FindStringSubmatch(content); len(m) > 1 {
			t := strings.TrimSpace(html.UnescapeString(reAnyTag.ReplaceAllString(m[1], "")))
			if t != "" {
				return t
			}
		}
	}
	return ""
}

// htmlToText strips markup and produces normalized plain text. Script, style
// and other non-content subtrees are removed entirely.
func htmlToText(content string) string {
	content = reDropTags.ReplaceAllString(content, "")
	content = reComments.ReplaceAllString(content, "")
	content = reBlockTag.ReplaceAllString(content, "\n")
	content = reAnyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return normalizeText(content)
}

// normalizeText collapses whitespace line by line, dropping empty lines.
// Must stay deterministic: the content hash is computed over its output.
func normalizeText(s string) string {
	s = reSpaces.ReplaceAllString(s, " ")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func fallbackTitle(event *model.ChangeEvent) string {
	if event.OriginalURL != "" {
		return event.OriginalURL
	}
	name := path.Base(strings.ReplaceAll(event.ExternalRef, "\\", "/"))
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	if name == "" || name == "." {
		return event.ExternalRef
	}
	return name
}
