package payload

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticket struct {
	subject string
	fail    bool
}

func (t ticket) CanonicalPayload() (Payload, error) {
	if t.fail {
		return nil, errors.New("broken ticket")
	}
	return Payload{"subject": t.subject}, nil
}

func TestDefaultFormatter_Format(t *testing.T) {
	ctx := context.Background()
	f := DefaultFormatter{}

	t.Run("success - payload passthrough", func(t *testing.T) {
		in := Payload{"id": 1}
		out, err := f.Format(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("success - plain map", func(t *testing.T) {
		out, err := f.Format(ctx, map[string]any{"subject": "Help"})
		require.NoError(t, err)
		assert.Equal(t, "Help", out["subject"])
	})

	t.Run("success - raw JSON", func(t *testing.T) {
		out, err := f.Format(ctx, json.RawMessage(`{"number": 42}`))
		require.NoError(t, err)
		assert.Equal(t, float64(42), out["number"])
	})

	t.Run("success - formattable entity", func(t *testing.T) {
		out, err := f.Format(ctx, ticket{subject: "Refund"})
		require.NoError(t, err)
		assert.Equal(t, "Refund", out["subject"])
	})

	t.Run("error - formattable entity fails", func(t *testing.T) {
		_, err := f.Format(ctx, ticket{fail: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken ticket")
	})

	t.Run("error - unsupported entity", func(t *testing.T) {
		_, err := f.Format(ctx, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedEntity)
	})

	t.Run("error - nil entity", func(t *testing.T) {
		_, err := f.Format(ctx, nil)
		assert.ErrorIs(t, err, ErrUnsupportedEntity)
	})

	t.Run("error - JSON array", func(t *testing.T) {
		_, err := f.Format(ctx, []byte(`[1,2]`))
		require.Error(t, err)
	})
}

func TestParse(t *testing.T) {
	t.Run("error - null", func(t *testing.T) {
		_, err := Parse([]byte(`null`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JSON object")
	})

	t.Run("error - invalid JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshaling payload")
	})
}

func TestValidateEventType(t *testing.T) {
	valid := []string{"convo.created", "convo.customer.reply.created", "customer_updated"}
	for _, e := range valid {
		assert.NoError(t, ValidateEventType(e), e)
	}

	invalid := []string{"", "convo.", ".created", "convo created", "convo.*"}
	for _, e := range invalid {
		assert.Error(t, ValidateEventType(e), e)
	}
}

func TestClassify(t *testing.T) {
	t.Run("conversation by subject marker", func(t *testing.T) {
		v := Classify(Payload{
			"id":       float64(7),
			"subject":  "Help",
			"number":   float64(42),
			"status":   "active",
			"assignee": nil,
			"customer": map[string]any{"firstName": "Jane", "lastName": "Doe", "email": "jane@example.com"},
			"_embedded": map[string]any{
				"threads": []any{
					map[string]any{"type": "customer", "body": "first", "createdBy": map[string]any{"firstName": "Jane", "type": "customer"}},
					map[string]any{"type": "lineitem", "body": ""},
				},
			},
		})

		require.Equal(t, Conversation, v.Kind())
		c := v.(ConversationView)
		assert.Equal(t, "7", c.ID)
		assert.Equal(t, "42", c.Number)
		assert.Equal(t, "Help", c.Subject)
		assert.Equal(t, "active", c.Status)
		assert.Nil(t, c.Assignee)
		require.NotNil(t, c.Customer)
		assert.Equal(t, "Jane Doe", c.Customer.Name())
		require.Len(t, c.Threads, 2)
		assert.True(t, c.Threads[0].IsMessage())
		assert.False(t, c.Threads[1].IsMessage())
		assert.False(t, c.Threads[0].CreatedBy.IsAgent())
	})

	t.Run("empty assignee object is treated as absent", func(t *testing.T) {
		c := Classify(Payload{"subject": "x", "assignee": map[string]any{}}).(ConversationView)
		assert.Nil(t, c.Assignee)
	})

	t.Run("customer by firstName and embedded emails", func(t *testing.T) {
		v := Classify(Payload{
			"id":        float64(3),
			"firstName": "Jane",
			"company":   "Acme",
			"_embedded": map[string]any{"emails": []any{map[string]any{"value": "jane@example.com"}}},
		})

		require.Equal(t, Customer, v.Kind())
		c := v.(CustomerView)
		assert.Equal(t, "3", c.ID)
		assert.Equal(t, []string{"jane@example.com"}, c.Emails)
		assert.Equal(t, "Acme", c.Company)
	})

	t.Run("customer with empty email list", func(t *testing.T) {
		v := Classify(Payload{"firstName": "Jane", "_embedded": map[string]any{"emails": []any{}}})
		require.Equal(t, Customer, v.Kind())
		assert.Empty(t, v.(CustomerView).Emails)
	})

	t.Run("firstName without emails is unknown", func(t *testing.T) {
		v := Classify(Payload{"id": "u-1", "firstName": "Jane"})
		require.Equal(t, Unknown, v.Kind())
		assert.Equal(t, "u-1", v.(UnknownView).ID)
	})

	t.Run("empty payload is unknown", func(t *testing.T) {
		v := Classify(Payload{})
		assert.Equal(t, Unknown, v.Kind())
		assert.Equal(t, "", v.(UnknownView).ID)
	})
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "conversation", Conversation.String())
	assert.Equal(t, "customer", Customer.String())
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestPerson_Name(t *testing.T) {
	assert.Equal(t, "Jane Doe", Person{FirstName: "Jane", LastName: "Doe"}.Name())
	assert.Equal(t, "Jane", Person{FirstName: "Jane"}.Name())
	assert.Equal(t, "Doe", Person{LastName: "Doe"}.Name())
}
