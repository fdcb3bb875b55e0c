package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// Notifier delivers a non-clean report somewhere a human will see it.
type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// SlackWebhook posts reports to a Slack incoming webhook.
type SlackWebhook struct {
	URL string
}

func (s SlackWebhook) Notify(ctx context.Context, r Report) error {
	if err := slack.PostWebhookContext(ctx, s.URL, buildWebhookMessage(r)); err != nil {
		return fmt.Errorf("reconcile: post slack webhook: %w", err)
	}
	return nil
}

// buildWebhookMessage renders one attachment per engine with findings.
func buildWebhookMessage(r Report) *slack.WebhookMessage {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("multidb reconcile: %d orphaned database(s)", r.OrphanCount()),
	}
	for _, e := range r.Engines {
		if len(e.Orphans) == 0 && len(e.Missing) == 0 && e.Err == nil {
			continue
		}
		att := slack.Attachment{
			Title:    string(e.Engine),
			Fallback: string(e.Engine),
			Color:    "warning",
		}
		if len(e.Orphans) > 0 {
			att.Fields = append(att.Fields, slack.AttachmentField{
				Title: "Orphaned",
				Value: strings.Join(e.Orphans, "\n"),
			})
		}
		if len(e.Missing) > 0 {
			att.Fields = append(att.Fields, slack.AttachmentField{
				Title: "Missing",
				Value: strings.Join(e.Missing, "\n"),
			})
		}
		if e.Err != nil {
			att.Color = "danger"
			att.Fields = append(att.Fields, slack.AttachmentField{
				Title: "Error",
				Value: e.Err.Error(),
			})
		}
		msg.Attachments = append(msg.Attachments, att)
	}
	return msg
}
