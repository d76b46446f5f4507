package payload

/* View is the shape of a canonical payload, decided once at the boundary
 * The set of variants is closed: ConversationView, CustomerView, UnknownView
 */
type View interface {
	Kind() Kind
	sealed()
}

// Kind identifies a View variant
type Kind int

const (
	Unknown Kind = iota + 1
	Conversation
	Customer
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Conversation:
		return "conversation"
	case Customer:
		return "customer"
	default:
		return "unknown"
	}
}

// Person is an agent or customer as embedded in a payload
type Person struct {
	FirstName string
	LastName  string
	Email     string
	Type      string // "user" for agents, "customer" otherwise
}

// Name returns "First Last" without dangling spaces
func (p Person) Name() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// IsAgent reports whether the person is a helpdesk user
func (p Person) IsAgent() bool {
	return p.Type == "user"
}

// Thread is one message of a conversation as embedded in a payload
type Thread struct {
	Type      string
	Body      string
	CreatedBy *Person
}

// ThreadTypeLineItem marks structural entries (status changes, assignments)
const ThreadTypeLineItem = "lineitem"

// IsMessage reports whether the thread carries a readable message
func (t Thread) IsMessage() bool {
	return t.Type != ThreadTypeLineItem && t.Body != ""
}

type ConversationView struct {
	ID       string
	Number   string
	Subject  string
	Status   string
	Assignee *Person
	Customer *Person
	// Threads keep payload order: the last element is the newest
	Threads []Thread
}

type CustomerView struct {
	ID        string
	FirstName string
	LastName  string
	Company   string
	Emails    []string
}

type UnknownView struct {
	ID string
}

func (ConversationView) Kind() Kind { return Conversation }
func (CustomerView) Kind() Kind     { return Customer }
func (UnknownView) Kind() Kind      { return Unknown }

func (ConversationView) sealed() {}
func (CustomerView) sealed()     {}
func (UnknownView) sealed()      {}

// Classify decides the payload shape from its marker keys
// subject => conversation; firstName plus _embedded.emails => customer; anything else => unknown
func Classify(p Payload) View {
	if p.Has("subject") {
		return conversationView(p)
	}
	if p.Has("firstName") {
		if emb := p.object("_embedded"); emb != nil {
			if emails, ok := emb.list("emails"); ok {
				return customerView(p, emails)
			}
		}
	}
	return UnknownView{ID: p.str("id")}
}

func conversationView(p Payload) ConversationView {
	v := ConversationView{
		ID:       p.str("id"),
		Number:   p.str("number"),
		Subject:  p.str("subject"),
		Status:   p.str("status"),
		Assignee: person(p.object("assignee")),
		Customer: person(p.object("customer")),
	}
	if emb := p.object("_embedded"); emb != nil {
		threads, _ := emb.list("threads")
		for _, raw := range threads {
			t := asPayload(raw)
			if t == nil {
				continue
			}
			v.Threads = append(v.Threads, Thread{
				Type:      t.str("type"),
				Body:      t.str("body"),
				CreatedBy: person(t.object("createdBy")),
			})
		}
	}
	return v
}

func customerView(p Payload, emails []any) CustomerView {
	v := CustomerView{
		ID:        p.str("id"),
		FirstName: p.str("firstName"),
		LastName:  p.str("lastName"),
		Company:   p.str("company"),
	}
	for _, raw := range emails {
		if e := asPayload(raw); e != nil {
			v.Emails = append(v.Emails, e.str("value"))
			continue
		}
		if s, ok := raw.(string); ok {
			v.Emails = append(v.Emails, s)
		}
	}
	return v
}

// person returns nil for absent or empty objects
func person(p Payload) *Person {
	if len(p) == 0 {
		return nil
	}
	return &Person{
		FirstName: p.str("firstName"),
		LastName:  p.str("lastName"),
		Email:     p.str("email"),
		Type:      p.str("type"),
	}
}

func asPayload(v any) Payload {
	switch m := v.(type) {
	case Payload:
		return m
	case map[string]any:
		return Payload(m)
	}
	return nil
}
