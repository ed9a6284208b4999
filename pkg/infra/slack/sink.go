package slack

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// Sink posts enriched items to a Slack channel
type Sink struct {
	client  *slack.Client
	channel string
}

var _ interfaces.Sink = (*Sink)(nil)

// NewSink creates a Slack sink posting to channel
func NewSink(token, channel string) (*Sink, error) {
	if token == "" || channel == "" {
		return nil, goerr.New("slack token and channel are required", goerr.T(types.TagConfig))
	}
	return &Sink{
		client:  slack.New(token),
		channel: channel,
	}, nil
}

// ID implements interfaces.Sink
func (s *Sink) ID() types.SinkID {
	return types.SinkSlack
}

// Deliver posts the item and returns the message timestamp as receipt
func (s *Sink) Deliver(ctx context.Context, item *model.EnrichedItem) (string, error) {
	var lines []string
	lines = append(lines, "*"+item.Content.Title+"*", "", item.Summary)
	if len(item.Tags) > 0 {
		lines = append(lines, "", "`"+strings.Join(item.Tags, "` `")+"`")
	}
	if url := item.Content.Event.OriginalURL; url != "" {
		lines = append(lines, "", url)
	}

	_, ts, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(strings.Join(lines, "\n"), false),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post slack message",
			goerr.V("channel", s.channel))
	}
	return ts, nil
}

// Notify sends a plain operator notification, outside the delivery path
func (s *Sink) Notify(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post slack notification")
	}
	return nil
}
