package console

import (
	"context"

	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// CreatePanel is the add-intent form.
type CreatePanel struct {
	Author  string
	Content string
	Err     string
}

// Submit sends {author, content} to the backend. Both fields must be
// non-empty. On success the form is cleared and onDone runs once; on failure
// the typed values stay in place and Err describes the problem.
func (p *CreatePanel) Submit(ctx context.Context, b Backend, author, content string, onDone func()) error {
	p.Author, p.Content = author, content

	d := intent.Draft{Author: author, Content: content}
	if err := d.Validate(); err != nil {
		p.Err = err.Error()
		return errors.NewInvalidRequest(err.Error())
	}

	if _, err := b.Create(ctx, d); err != nil {
		p.Err = message(err)
		return err
	}

	*p = CreatePanel{}
	if onDone != nil {
		onDone()
	}
	return nil
}
