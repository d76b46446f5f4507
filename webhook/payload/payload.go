package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// eventTypePattern validates event names: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// ErrUnsupportedEntity is returned when an entity cannot be turned into a canonical payload
var ErrUnsupportedEntity = errors.New("unsupported entity")

/* Payload is the canonical mapping representation of a helpdesk entity
 * Keys follow the helpdesk API: subject, number, status, assignee, customer,
 * _embedded.threads for conversations; firstName, _embedded.emails, company for customers
 */
type Payload map[string]any

// Formattable is implemented by domain entities that know their canonical form
type Formattable interface {
	CanonicalPayload() (Payload, error)
}

// Formatter converts a domain entity into its canonical payload
type Formatter interface {
	Format(ctx context.Context, entity any) (Payload, error)
}

// DefaultFormatter accepts canonical mappings, raw JSON and Formattable entities
type DefaultFormatter struct{}

// Format implements Formatter
func (DefaultFormatter) Format(ctx context.Context, entity any) (Payload, error) {
	switch e := entity.(type) {
	case Payload:
		return e, nil
	case map[string]any:
		return Payload(e), nil
	case json.RawMessage:
		return Parse(e)
	case []byte:
		return Parse(e)
	case Formattable:
		p, err := e.CanonicalPayload()
		if err != nil {
			return nil, fmt.Errorf("formatting entity: %w", err)
		}
		return p, nil
	case nil:
		return nil, fmt.Errorf("formatting nil entity: %w", ErrUnsupportedEntity)
	default:
		return nil, fmt.Errorf("formatting %T: %w", entity, ErrUnsupportedEntity)
	}
}

// Parse decodes a JSON object into a Payload
func Parse(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling payload: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return p, nil
}

// Bytes returns the JSON-encoded payload as bytes
// The returned bytes are minified (no extra whitespace)
func (p Payload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

// ValidateEventType validates an event name format
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if !eventTypePattern.MatchString(eventType) {
		return fmt.Errorf("event type must be hierarchical and contain only [a-zA-Z0-9_.]: %s", eventType)
	}
	return nil
}

// Has reports whether the key is present, even with a nil value
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Payload) str(key string) string {
	return scalar(p[key])
}

func (p Payload) object(key string) Payload {
	switch v := p[key].(type) {
	case Payload:
		return v
	case map[string]any:
		return Payload(v)
	}
	return nil
}

func (p Payload) list(key string) ([]any, bool) {
	switch v := p[key].(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []Payload:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	}
	return nil, false
}

// scalar renders JSON scalars the way they read in a message: 42, not 42.000000
func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
