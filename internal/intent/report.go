package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ReportEntry is one agent response recorded against an intent.
type ReportEntry struct {
	ID            ID        `json:"id"`
	AgentName     string    `json:"agentName"`
	Response      string    `json:"response"`
	CreationDate  time.Time `json:"creationDate"`
	ExecutionTime float64   `json:"executionTime"` // seconds
}

type wireReportEntry struct {
	ID            ID              `json:"id"`
	AgentName     string          `json:"agentName"`
	Response      string          `json:"response"`
	CreationDate  json.RawMessage `json:"creationDate"`
	Date          json.RawMessage `json:"date"`
	ExecutionTime json.RawMessage `json:"executionTime"`
}

// UnmarshalJSON decodes a report entry. executionTime may arrive as a
// number or a numeric string.
func (r *ReportEntry) UnmarshalJSON(b []byte) error {
	var w wireReportEntry
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
	exec, err := parseSeconds(w.ExecutionTime)
	if err != nil {
		return fmt.Errorf("executionTime: %w", err)
	}

	*r = ReportEntry{
		ID:            w.ID,
		AgentName:     w.AgentName,
		Response:      w.Response,
		CreationDate:  creation,
		ExecutionTime: exec,
	}
	return nil
}

func parseSeconds(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if isEmptyRaw(raw) {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// Document is an opaque JSON-LD representation of an intent.
type Document json.RawMessage

// MarshalJSON emits the document unchanged.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (d *Document) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

// Indent returns the document pretty-printed with two-space indentation.
// Documents that are not valid JSON are returned as-is.
func (d Document) Indent() string {
	if len(d) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, d, "", "  "); err != nil {
		return string(d)
	}
	return buf.String()
}
