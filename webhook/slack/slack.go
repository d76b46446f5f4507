package slack

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
)

const (
	// HostMarker identifies chat-style destinations by URL
	HostMarker = "hooks.slack.com"

	// MaxBodyLength is the excerpt length of the latest message, in characters
	MaxBodyLength = 300

	ellipsis = "..."
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// IsChatURL reports whether the destination expects a single text field
func IsChatURL(url string) bool {
	return strings.Contains(url, HostMarker)
}

// AuthorKind says who wrote a thread
type AuthorKind int

const (
	AuthorCustomer AuthorKind = iota + 1
	AuthorAgent
)

// SourceThread is a thread as stored on the original entity
type SourceThread struct {
	Type       string
	Body       string
	AuthorKind AuthorKind
	AuthorID   int64
}

/* ThreadSource is implemented by conversation entities that can be queried
 * for their newest non line-item thread with a body
 */
type ThreadSource interface {
	LatestMessageThread(ctx context.Context) (SourceThread, bool, error)
}

// PeopleDirectory resolves thread authors
type PeopleDirectory interface {
	Agent(ctx context.Context, id int64) (payload.Person, error)
	Customer(ctx context.Context, id int64) (payload.Person, error)
}

// Builder renders canonical payloads as Slack mrkdwn digests
type Builder struct {
	BaseURL string
	Product string
	People  PeopleDirectory
}

// NewBuilder creates a builder; an empty baseURL omits view links
func NewBuilder(baseURL, product string, people PeopleDirectory) *Builder {
	if product == "" {
		product = "FreeScout"
	}
	return &Builder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Product: product,
		People:  people,
	}
}

// Build returns the message text for the view; entity may be nil
func (b *Builder) Build(ctx context.Context, view payload.View, entity any) string {
	switch v := view.(type) {
	case payload.ConversationView:
		return b.conversation(ctx, v, entity)
	case payload.CustomerView:
		return b.customer(v)
	case payload.UnknownView:
		return b.fallback(v)
	}
	return b.fallback(payload.UnknownView{})
}

func (b *Builder) conversation(ctx context.Context, v payload.ConversationView, entity any) string {
	var sb strings.Builder

	sb.WriteString("*Conversation:* #" + v.Number + " - " + v.Subject + "\n")
	if v.Status != "" {
		sb.WriteString("*Status:* " + v.Status + "\n")
	}
	if v.Assignee != nil {
		sb.WriteString("*Assigned to:* " + v.Assignee.Name() + "\n")
	} else {
		sb.WriteString("*Assigned to:* Unassigned\n")
	}
	if v.Customer != nil {
		sb.WriteString("*Customer:* " + v.Customer.Name() + " (" + v.Customer.Email + ")\n")
	}

	if sender, body, ok := b.latestMessage(ctx, v, entity); ok {
		sb.WriteString("\n")
		if sender != "" {
			sb.WriteString("*From:* " + sender + "\n")
		}
		sb.WriteString("*Latest Message:*\n```" + body + "```\n")
	}

	if b.BaseURL != "" {
		sb.WriteString("\n<" + b.BaseURL + "/conversation/" + v.Number + "|View Conversation>")
	}
	return sb.String()
}

// latestMessage prefers the original entity and falls back to embedded threads
func (b *Builder) latestMessage(ctx context.Context, v payload.ConversationView, entity any) (string, string, bool) {
	if src, ok := entity.(ThreadSource); ok {
		t, found, err := src.LatestMessageThread(ctx)
		if err == nil && found && t.Type != payload.ThreadTypeLineItem && t.Body != "" {
			return b.author(ctx, t), Excerpt(t.Body), true
		}
	}

	for i := len(v.Threads) - 1; i >= 0; i-- {
		t := v.Threads[i]
		if !t.IsMessage() {
			continue
		}
		sender := ""
		if t.CreatedBy != nil {
			sender = label(*t.CreatedBy)
		}
		return sender, Excerpt(t.Body), true
	}
	return "", "", false
}

func (b *Builder) author(ctx context.Context, t SourceThread) string {
	if b.People == nil || t.AuthorID == 0 {
		return ""
	}
	var (
		p   payload.Person
		err error
	)
	switch t.AuthorKind {
	case AuthorAgent:
		p, err = b.People.Agent(ctx, t.AuthorID)
		p.Type = "user"
	case AuthorCustomer:
		p, err = b.People.Customer(ctx, t.AuthorID)
		p.Type = "customer"
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return label(p)
}

func label(p payload.Person) string {
	if p.IsAgent() {
		return p.Name() + " (Agent)"
	}
	return p.Name() + " (Customer)"
}

func (b *Builder) customer(v payload.CustomerView) string {
	var sb strings.Builder

	sb.WriteString("*Customer:* " + payload.Person{FirstName: v.FirstName, LastName: v.LastName}.Name() + "\n")
	if len(v.Emails) > 0 && v.Emails[0] != "" {
		sb.WriteString("*Email:* " + v.Emails[0] + "\n")
	} else {
		sb.WriteString("*Email:* No email\n")
	}
	if v.Company != "" {
		sb.WriteString("*Company:* " + v.Company + "\n")
	}
	if b.BaseURL != "" && v.ID != "" {
		sb.WriteString("\n<" + b.BaseURL + "/customer/" + v.ID + "|View Customer>")
	}
	return sb.String()
}

func (b *Builder) fallback(v payload.UnknownView) string {
	msg := "New event from " + b.Product
	if v.ID != "" {
		msg += " (ID: " + v.ID + ")"
	}
	return msg
}

// Excerpt strips HTML tags and truncates to MaxBodyLength characters
func Excerpt(body string) string {
	return Truncate(tagPattern.ReplaceAllString(body, ""))
}

// Truncate cuts s at MaxBodyLength characters and appends "..." when it did
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxBodyLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxBodyLength]) + ellipsis
}
