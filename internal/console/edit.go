package console

import (
	"context"

	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// EditPanel is the edit-content form for one intent. The owning view picks
// the target; the panel never changes it.
type EditPanel struct {
	target intent.ID
	seed   string

	Content string
	Err     string
}

// Seed points the panel at (id, content). The form is re-initialized only
// when the supplied target or seed content differs from the current one.
func (p *EditPanel) Seed(id intent.ID, content string) {
	if id == p.target && content == p.seed {
		return
	}
	*p = EditPanel{target: id, seed: content, Content: content}
}

// Target returns the intent being edited.
func (p *EditPanel) Target() intent.ID {
	return p.target
}

// Submit sends {content} for the target intent. On success onDone runs
// once; on failure the typed content stays and Err describes the problem.
func (p *EditPanel) Submit(ctx context.Context, b Backend, content string, onDone func()) error {
	p.Content = content

	patch := intent.Patch{Content: content}
	if err := patch.Validate(); err != nil {
		p.Err = err.Error()
		return errors.NewInvalidRequest(err.Error())
	}

	if err := b.Update(ctx, p.target, patch); err != nil {
		p.Err = message(err)
		return err
	}

	p.Err = ""
	if onDone != nil {
		onDone()
	}
	return nil
}
