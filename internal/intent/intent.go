// Package intent holds the records exchanged with the intent backend.
package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is a backend-assigned intent identifier. Backends send it either as a
// JSON string or a JSON number; it is always carried as a string here.
type ID string

// UnmarshalJSON accepts string, number and null identifiers.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("intent id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as text.
func (id ID) String() string { return string(id) }

// Intent is a user-authored record. ID and both timestamps are owned by
// the backend; only Content changes after creation.
type Intent struct {
	ID             ID        `json:"id"`
	Author         string    `json:"author"`
	Content        string    `json:"content"`
	CreationDate   time.Time `json:"creationDate"`
	LastUpdateDate time.Time `json:"lastUpdateDate"`
}

// wireIntent mirrors Intent with raw timestamps. "date" is an older name
// for creationDate that some backends still emit.
type wireIntent struct {
	ID             ID              `json:"id"`
	Author         string          `json:"author"`
	Content        string          `json:"content"`
	CreationDate   json.RawMessage `json:"creationDate"`
	Date           json.RawMessage `json:"date"`
	LastUpdateDate json.RawMessage `json:"lastUpdateDate"`
}

// UnmarshalJSON decodes an intent, accepting the timestamp formats in
// ParseTime and falling back to "date" when creationDate is absent.
func (i *Intent) UnmarshalJSON(b []byte) error {
	var w wireIntent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	created := w.CreationDate
	if isEmptyRaw(created) {
		created = w.Date
	}
	creation, err := ParseTime(created)
	if err != nil {
		return fmt.Errorf("creationDate: %w", err)
	}
	updated, err := ParseTime(w.LastUpdateDate)
	if err != nil {
		return fmt.Errorf("lastUpdateDate: %w", err)
	}

	*i = Intent{
		ID:             w.ID,
		Author:         w.Author,
		Content:        w.Content,
		CreationDate:   creation,
		LastUpdateDate: updated,
	}
	return nil
}

// Draft is the body of a create request.
type Draft struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Normalize trims surrounding whitespace from both fields.
func (d Draft) Normalize() Draft {
	return Draft{
		Author:  strings.TrimSpace(d.Author),
		Content: strings.TrimSpace(d.Content),
	}
}

// Validate reports the first missing field, or nil.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Author) == "" {
		return fmt.Errorf("author is required")
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// Patch is the body of an update request. It never carries the identifier.
type Patch struct {
	Content string `json:"content"`
}

// Normalize trims surrounding whitespace from the content.
func (p Patch) Normalize() Patch {
	return Patch{Content: strings.TrimSpace(p.Content)}
}

// Validate requires non-empty content.
func (p Patch) Validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

func isEmptyRaw(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
