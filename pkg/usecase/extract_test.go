package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/usecase"
)

// fetcherMock serves payloads from a map keyed by ref
type fetcherMock struct {
	schemes  []string
	payloads map[string][]byte
	err      error
}

func (m *fetcherMock) Schemes() []string {
	return m.schemes
}

func (m *fetcherMock) Fetch(_ context.Context, ref string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payloads[ref], nil
}

func testEvent(ref string) *model.ChangeEvent {
	return &model.ChangeEvent{
		ID:          "ev-1",
		SourceID:    "test",
		ExternalRef: "clips/page.html",
		DetectedAt:  time.Now(),
		PayloadRef:  ref,
	}
}

func TestExtract_HTML(t *testing.T) {
	html := `<!DOCTYPE html>
<html><head><title>A Great &amp; Useful Post</title>
<style>body { color: red }</style>
<script>alert("nope")</script></head>
<body>
<h1>Heading</h1>
<p>First   paragraph with
wrapped lines.</p>
<div>Second &lt;paragraph&gt;.</div>
<!-- hidden comment -->
</body></html>`

	fetcher := &fetcherMock{
		schemes:  []string{"test"},
		payloads: map[string][]byte{"test://page": []byte(html)},
	}
	x := usecase.NewExtractor(fetcher)

	content := gt.R1(x.Extract(context.Background(), testEvent("test://page"))).NoError(t)

	gt.Equal(t, content.Title, "A Great & Useful Post")
	gt.False(t, strings.Contains(content.Text, "alert"))
	gt.False(t, strings.Contains(content.Text, "color: red"))
	gt.False(t, strings.Contains(content.Text, "hidden comment"))
	gt.True(t, strings.Contains(content.Text, "First paragraph with"))
	gt.True(t, strings.Contains(content.Text, "Second <paragraph>."))
	gt.Equal(t, content.Hash, model.HashText(content.Text))
}

func TestExtract_PlainText(t *testing.T) {
	fetcher := &fetcherMock{
		schemes:  []string{"test"},
		payloads: map[string][]byte{"test://note": []byte("  hello \t world  \n\n\nsecond line \n")},
	}
	x := usecase.NewExtractor(fetcher)

	content := gt.R1(x.Extract(context.Background(), testEvent("test://note"))).NoError(t)

	gt.Equal(t, content.Text, "hello world\nsecond line")
	// No title in plain text: fall back to a name derived from the ref
	gt.Equal(t, content.Title, "page")
}

func TestExtract_DeterministicHash(t *testing.T) {
	payload := []byte("<html><body><p>same content</p></body></html>")
	fetcher := &fetcherMock{
		schemes:  []string{"test"},
		payloads: map[string][]byte{"test://a": payload, "test://b": payload},
	}
	x := usecase.NewExtractor(fetcher)

	a := gt.R1(x.Extract(context.Background(), testEvent("test://a"))).NoError(t)
	b := gt.R1(x.Extract(context.Background(), testEvent("test://b"))).NoError(t)

	gt.Equal(t, a.Hash, b.Hash)
}

func TestExtract_Failures(t *testing.T) {
	x := usecase.NewExtractor(&fetcherMock{
		schemes:  []string{"test"},
		payloads: map[string][]byte{"test://empty": []byte("  \n\t ")},
	})

	t.Run("no scheme", func(t *testing.T) {
		_, err := x.Extract(context.Background(), testEvent("plain-path"))
		gt.Error(t, err)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := x.Extract(context.Background(), testEvent("gopher://page"))
		gt.Error(t, err)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := x.Extract(context.Background(), testEvent("test://empty"))
		gt.Error(t, err)
	})
}

var _ interfaces.Fetcher = (*fetcherMock)(nil)
