package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// Sink writes enriched items as pages into a Notion database. The database
// is expected to have Title, Summary, Tags, URL and Created properties.
type Sink struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
}

var _ interfaces.Sink = (*Sink)(nil)

// NewSink creates a Notion sink for the given integration token and
// database.
func NewSink(token, databaseID string) (*Sink, error) {
	if token == "" || databaseID == "" {
		return nil, goerr.New("notion token and database ID are required", goerr.T(types.TagConfig))
	}
	return &Sink{
		client:     notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
	}, nil
}

// ID implements interfaces.Sink
func (s *Sink) ID() types.SinkID {
	return types.SinkNotion
}

// Deliver creates a page for the item and returns the page ID as receipt
func (s *Sink) Deliver(ctx context.Context, item *model.EnrichedItem) (string, error) {
	tags := item.Tags
	if len(tags) == 0 {
		tags = []string{"untagged"}
	}
	options := make([]notionapi.Option, 0, len(tags))
	for _, tag := range tags {
		options = append(options, notionapi.Option{Name: tag})
	}

	created := notionapi.Date(time.Now())
	properties := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Title: richText(item.Content.Title),
		},
		"Summary": notionapi.RichTextProperty{
			RichText: richText(item.Summary),
		},
		"Tags": notionapi.MultiSelectProperty{
			MultiSelect: options,
		},
		"Created": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &created},
		},
	}
	if item.Content.Event.OriginalURL != "" {
		properties["URL"] = notionapi.URLProperty{URL: item.Content.Event.OriginalURL}
	}

	page, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: properties,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create notion page",
			goerr.V("title", item.Content.Title))
	}

	return string(page.ID), nil
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: s}},
	}
}
