package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestConsoleError_Error(t *testing.T) {
	err := &ConsoleError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "intent not found",
	}

	expected := "NOT_FOUND: intent not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("author is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "author is required" {
		t.Errorf("Message = %q, want %q", err.Message, "author is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("42")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "42" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "42")
	}
}

func TestNewTransport(t *testing.T) {
	err := NewTransport("list", fmt.Errorf("connection refused"))

	if err.Code != ErrTransport {
		t.Errorf("Code = %q, want %q", err.Code, ErrTransport)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Details["cause"] != "connection refused" {
		t.Errorf("Details[cause] = %v, want %q", err.Details["cause"], "connection refused")
	}
	if !strings.HasPrefix(err.Message, "list:") {
		t.Errorf("Message = %q, want op prefix", err.Message)
	}
}

func TestNewUpstreamStatus(t *testing.T) {
	t.Run("short body", func(t *testing.T) {
		err := NewUpstreamStatus("delete", 404, []byte(`{"error":"missing"}`))

		if err.Code != ErrUpstreamStatus {
			t.Errorf("Code = %q, want %q", err.Code, ErrUpstreamStatus)
		}
		if err.Details["upstream_status"] != 404 {
			t.Errorf("Details[upstream_status] = %v, want 404", err.Details["upstream_status"])
		}
		if err.Details["body"] != `{"error":"missing"}` {
			t.Errorf("Details[body] = %v", err.Details["body"])
		}
	})

	t.Run("long body is truncated", func(t *testing.T) {
		err := NewUpstreamStatus("list", 500, []byte(strings.Repeat("x", 1000)))

		body, _ := err.Details["body"].(string)
		if len(body) != maxExcerpt+3 {
			t.Errorf("len(body) = %d, want %d", len(body), maxExcerpt+3)
		}
	})
}

func TestNewMalformedResponse(t *testing.T) {
	err := NewMalformedResponse("report", fmt.Errorf("unexpected EOF"))

	if err.Code != ErrMalformedResponse {
		t.Errorf("Code = %q, want %q", err.Code, ErrMalformedResponse)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("template exploded"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "template exploded" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "template exploded")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestUpstreamStatus(t *testing.T) {
	if got := UpstreamStatus(NewUpstreamStatus("list", 503, nil)); got != 503 {
		t.Errorf("UpstreamStatus() = %d, want 503", got)
	}
	if got := UpstreamStatus(fmt.Errorf("wrapped: %w", NewUpstreamStatus("list", 409, nil))); got != 409 {
		t.Errorf("UpstreamStatus(wrapped) = %d, want 409", got)
	}
	if got := UpstreamStatus(NewTransport("list", nil)); got != 0 {
		t.Errorf("UpstreamStatus(transport) = %d, want 0", got)
	}
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("1"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("1"), ErrTransport) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for plain error")
		}
	})

	t.Run("wrapped ConsoleError", func(t *testing.T) {
		wrapped := fmt.Errorf("delete 1: %w", NewTransport("delete", nil))
		if !Is(wrapped, ErrTransport) {
			t.Error("Is() = false, want true for wrapped ConsoleError")
		}
	})
}
