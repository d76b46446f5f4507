package webhook_test

import (
	"testing"

	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptionMatches(t *testing.T) {
	unscoped := webhook.Subscription{Events: []string{"convo.created", "convo.status"}}
	scoped := webhook.Subscription{Events: []string{"convo.created"}, Mailboxes: []int64{2, 5}}

	tests := []struct {
		name    string
		sub     webhook.Subscription
		event   string
		mailbox int64
		want    bool
	}{
		{"subscribed, no mailbox filter", unscoped, "convo.status", 9, true},
		{"not subscribed", unscoped, "customer.created", 0, false},
		{"scoped, mailbox in list", scoped, "convo.created", 5, true},
		{"scoped, mailbox outside list", scoped, "convo.created", 3, false},
		{"scoped, no mailbox", scoped, "convo.created", 0, true},
		{"scoped, wrong event", scoped, "convo.status", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.Matches(tt.event, tt.mailbox))
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "delivered", webhook.Delivered.String())
	assert.Equal(t, "rejected", webhook.Rejected.String())
	assert.Equal(t, "unreachable", webhook.Unreachable.String())
	assert.Equal(t, "unknown", webhook.Status(0).String())

	assert.NoError(t, webhook.Unreachable.Validate())
	assert.Error(t, webhook.Status(9).Validate())

	assert.False(t, webhook.Delivered.IsFailure())
	assert.True(t, webhook.Rejected.IsFailure())
	assert.True(t, webhook.Unreachable.IsFailure())
}

func TestBranchFor(t *testing.T) {
	assert.Equal(t, webhook.Chat, webhook.BranchFor("https://hooks.slack.com/services/T/B/X"))
	assert.Equal(t, webhook.Signed, webhook.BranchFor("https://example.com/hooks/slack"))
	assert.Equal(t, "chat", webhook.Chat.String())
	assert.Equal(t, "signed", webhook.Signed.String())
	assert.Error(t, webhook.Branch(0).Validate())
}

func TestLogEntryTransportFailure(t *testing.T) {
	assert.True(t, webhook.LogEntry{StatusCode: 0}.TransportFailure())
	assert.False(t, webhook.LogEntry{StatusCode: 502}.TransportFailure())
}
