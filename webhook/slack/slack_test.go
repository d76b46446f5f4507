package slack_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
	"github.com/marcelsud/helpdesk-webhooks/webhook/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conversation struct {
	thread slack.SourceThread
	found  bool
	err    error
}

func (c conversation) LatestMessageThread(ctx context.Context) (slack.SourceThread, bool, error) {
	return c.thread, c.found, c.err
}

type directory struct{}

func (directory) Agent(ctx context.Context, id int64) (payload.Person, error) {
	if id == 1 {
		return payload.Person{FirstName: "Ann", LastName: "Agent"}, nil
	}
	return payload.Person{}, errors.New("agent not found")
}

func (directory) Customer(ctx context.Context, id int64) (payload.Person, error) {
	return payload.Person{FirstName: "Carl", LastName: "Client"}, nil
}

func build(t *testing.T, b *slack.Builder, p payload.Payload, entity any) string {
	t.Helper()
	return b.Build(context.Background(), payload.Classify(p), entity)
}

func TestBuild_Conversation(t *testing.T) {
	b := slack.NewBuilder("https://help.example.com/", "", directory{})

	t.Run("header lines with unassigned conversation", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"subject":  "Help",
			"number":   42,
			"status":   "active",
			"assignee": nil,
		}, nil)

		assert.True(t, strings.HasPrefix(msg, "*Conversation:* #42 - Help\n*Status:* active\n*Assigned to:* Unassigned\n"), msg)
		assert.True(t, strings.HasSuffix(msg, "\n<https://help.example.com/conversation/42|View Conversation>"), msg)
		assert.NotContains(t, msg, "Latest Message")
	})

	t.Run("assignee and customer", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"subject":  "Help",
			"number":   float64(7),
			"assignee": map[string]any{"firstName": "Ann", "lastName": "Agent"},
			"customer": map[string]any{"firstName": "Jane", "lastName": "Doe", "email": "jane@example.com"},
		}, nil)

		assert.Contains(t, msg, "*Assigned to:* Ann Agent\n")
		assert.Contains(t, msg, "*Customer:* Jane Doe (jane@example.com)\n")
		assert.NotContains(t, msg, "*Status:*")
	})

	t.Run("embedded threads newest first skipping line items", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"subject": "Help",
			"number":  42,
			"_embedded": map[string]any{"threads": []any{
				map[string]any{"type": "customer", "body": "old message"},
				map[string]any{"type": "message", "body": "<p>Hello <b>there</b></p>", "createdBy": map[string]any{"firstName": "Ann", "lastName": "Agent", "type": "user"}},
				map[string]any{"type": "lineitem", "body": "Status changed"},
				map[string]any{"type": "note", "body": ""},
			}},
		}, nil)

		assert.Contains(t, msg, "\n*From:* Ann Agent (Agent)\n*Latest Message:*\n```Hello there```\n")
		assert.NotContains(t, msg, "old message")
		assert.NotContains(t, msg, "Status changed")
	})

	t.Run("embedded customer thread", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"subject": "Help",
			"number":  42,
			"_embedded": map[string]any{"threads": []any{
				map[string]any{"type": "customer", "body": "Where is my order?", "createdBy": map[string]any{"firstName": "Jane", "lastName": "Doe", "type": "customer"}},
			}},
		}, nil)

		assert.Contains(t, msg, "*From:* Jane Doe (Customer)\n")
	})

	t.Run("embedded thread without author", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"subject":   "Help",
			"number":    42,
			"_embedded": map[string]any{"threads": []any{map[string]any{"type": "customer", "body": "hi"}}},
		}, nil)

		assert.Contains(t, msg, "\n*Latest Message:*\n```hi```\n")
		assert.NotContains(t, msg, "*From:*")
	})

	t.Run("original entity wins over embedded threads", func(t *testing.T) {
		entity := conversation{found: true, thread: slack.SourceThread{
			Type: "message", Body: "from entity", AuthorKind: slack.AuthorAgent, AuthorID: 1,
		}}
		msg := build(t, b, payload.Payload{
			"subject":   "Help",
			"number":    42,
			"_embedded": map[string]any{"threads": []any{map[string]any{"type": "customer", "body": "from payload"}}},
		}, entity)

		assert.Contains(t, msg, "*From:* Ann Agent (Agent)\n*Latest Message:*\n```from entity```")
		assert.NotContains(t, msg, "from payload")
	})

	t.Run("entity customer author", func(t *testing.T) {
		entity := conversation{found: true, thread: slack.SourceThread{
			Type: "customer", Body: "question", AuthorKind: slack.AuthorCustomer, AuthorID: 9,
		}}
		msg := build(t, b, payload.Payload{"subject": "Help", "number": 42}, entity)

		assert.Contains(t, msg, "*From:* Carl Client (Customer)\n")
	})

	t.Run("unresolvable author omits sender", func(t *testing.T) {
		entity := conversation{found: true, thread: slack.SourceThread{
			Type: "message", Body: "reply", AuthorKind: slack.AuthorAgent, AuthorID: 404,
		}}
		msg := build(t, b, payload.Payload{"subject": "Help", "number": 42}, entity)

		assert.Contains(t, msg, "\n*Latest Message:*\n```reply```\n")
		assert.NotContains(t, msg, "*From:*")
	})

	t.Run("entity lookup error falls back to embedded threads", func(t *testing.T) {
		entity := conversation{err: errors.New("db down")}
		msg := build(t, b, payload.Payload{
			"subject":   "Help",
			"number":    42,
			"_embedded": map[string]any{"threads": []any{map[string]any{"type": "customer", "body": "from payload"}}},
		}, entity)

		assert.Contains(t, msg, "```from payload```")
	})

	t.Run("no base url omits link", func(t *testing.T) {
		msg := build(t, slack.NewBuilder("", "", nil), payload.Payload{"subject": "Help", "number": 42}, nil)
		assert.NotContains(t, msg, "View Conversation")
	})
}

func TestBuild_Customer(t *testing.T) {
	b := slack.NewBuilder("https://help.example.com", "", nil)

	t.Run("empty email list", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"firstName": "Jane",
			"_embedded": map[string]any{"emails": []any{}},
		}, nil)

		assert.Contains(t, msg, "*Email:* No email")
		assert.True(t, strings.HasPrefix(msg, "*Customer:* Jane\n"), msg)
		assert.NotContains(t, msg, "View Customer")
	})

	t.Run("full customer", func(t *testing.T) {
		msg := build(t, b, payload.Payload{
			"id":        float64(15),
			"firstName": "Jane",
			"lastName":  "Doe",
			"company":   "Acme",
			"_embedded": map[string]any{"emails": []any{
				map[string]any{"value": "jane@example.com"},
				map[string]any{"value": "jd@example.com"},
			}},
		}, nil)

		assert.Equal(t, "*Customer:* Jane Doe\n*Email:* jane@example.com\n*Company:* Acme\n\n<https://help.example.com/customer/15|View Customer>", msg)
	})
}

func TestBuild_Fallback(t *testing.T) {
	b := slack.NewBuilder("", "", nil)

	assert.Equal(t, "New event from FreeScout (ID: 5)", build(t, b, payload.Payload{"id": 5}, nil))
	assert.Equal(t, "New event from FreeScout", build(t, b, payload.Payload{"foo": "bar"}, nil))
	assert.Equal(t, "New event from Helpdesk", slack.NewBuilder("", "Helpdesk", nil).Build(context.Background(), payload.UnknownView{}, nil))
}

func TestTruncate(t *testing.T) {
	t.Run("short body unchanged", func(t *testing.T) {
		body := strings.Repeat("a", slack.MaxBodyLength)
		assert.Equal(t, body, slack.Truncate(body))
		assert.Equal(t, body, slack.Truncate(slack.Truncate(body)))
	})

	t.Run("301 characters cut to 300 plus ellipsis", func(t *testing.T) {
		out := slack.Truncate(strings.Repeat("a", slack.MaxBodyLength+1))
		require.Len(t, out, slack.MaxBodyLength+3)
		assert.True(t, strings.HasSuffix(out, "..."))
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		body := strings.Repeat("é", slack.MaxBodyLength)
		assert.Equal(t, body, slack.Truncate(body))
	})
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", slack.Excerpt(`<div class="x">Hello <br/>world</div>`))

	long := "<p>" + strings.Repeat("b", 400) + "</p>"
	assert.Equal(t, strings.Repeat("b", 300)+"...", slack.Excerpt(long))
}

func TestIsChatURL(t *testing.T) {
	assert.True(t, slack.IsChatURL("https://hooks.slack.com/services/T000/B000/XXX"))
	assert.False(t, slack.IsChatURL("https://example.com/webhooks"))
}
