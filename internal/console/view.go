// Package console holds the intent list view: the state machine behind the
// admin console page and the create/edit panels it owns.
//
// A View is not safe for concurrent use; Sessions serializes access.
package console

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// View is the list view of one console session.
type View struct {
	backend Backend
	logger  *slog.Logger

	// Intents is the last-fetched collection, replaced wholesale by Refresh.
	Intents []intent.Intent
	Loaded  bool
	ListErr string

	CreateOpen bool
	Create     CreatePanel

	EditOpen bool
	Edit     EditPanel

	Report ReportView
	JSONLD JSONLDView

	interest Interest
}

// NewView creates a closed, empty view.
func NewView(b Backend, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{backend: b, logger: logger}
}

// ReportOpen reports whether the report panel is open, and for which intent.
func (v *View) ReportOpen() (intent.ID, bool) {
	return v.interest.Target(ReportPanel)
}

// JSONLDOpen reports whether the JSON-LD panel is open, and for which intent.
func (v *View) JSONLDOpen() (intent.ID, bool) {
	return v.interest.Target(JSONLDPanel)
}

// Refresh fetches the full collection and replaces the local one. On
// failure the previous collection is kept and ListErr is set.
func (v *View) Refresh(ctx context.Context) error {
	intents, err := v.backend.List(ctx)
	if err != nil {
		v.ListErr = message(err)
		return v.fail("refresh", "", err)
	}
	v.Intents = intents
	v.Loaded = true
	v.ListErr = ""
	return nil
}

// ToggleCreate opens or closes the create panel. Nothing is fetched.
func (v *View) ToggleCreate() {
	v.CreateOpen = !v.CreateOpen
	if !v.CreateOpen {
		v.Create = CreatePanel{}
	}
}

// SubmitCreate submits the create panel. On success the panel closes and
// the collection is refreshed once.
func (v *View) SubmitCreate(ctx context.Context, author, content string) error {
	done := false
	if err := v.Create.Submit(ctx, v.backend, author, content, func() { done = true }); err != nil {
		return v.fail("create", "", err)
	}
	if !done {
		return nil
	}
	v.CreateOpen = false
	return v.Refresh(ctx)
}

// BeginEdit opens the edit panel on id, replacing any previous target
// without confirmation.
func (v *View) BeginEdit(id intent.ID, content string) {
	if !v.EditOpen {
		v.Edit = EditPanel{}
	}
	v.EditOpen = true
	v.Edit.Seed(id, content)
}

// CancelEdit closes the edit panel.
func (v *View) CancelEdit() {
	v.EditOpen = false
}

// SubmitEdit submits the edit panel and, on success, completes the edit.
func (v *View) SubmitEdit(ctx context.Context, content string) error {
	if !v.EditOpen {
		return errors.NewInvalidRequest("no intent is being edited")
	}
	id := v.Edit.Target()
	done := false
	if err := v.Edit.Submit(ctx, v.backend, content, func() { done = true }); err != nil {
		return v.fail("update", id, err)
	}
	if !done {
		return nil
	}
	return v.CompleteEdit(ctx)
}

// CompleteEdit closes the edit panel, refreshes the collection and
// re-fetches every open detail panel that displays the edited intent.
func (v *View) CompleteEdit(ctx context.Context) error {
	id := v.Edit.Target()
	v.EditOpen = false

	errs := []error{v.Refresh(ctx)}
	for _, kind := range v.interest.Interested(id) {
		errs = append(errs, v.load(ctx, kind, id))
	}
	return stderrors.Join(errs...)
}

// DeleteIntent deletes id, refreshes the collection, and closes every
// detail panel that displayed id. Panels showing other intents stay open.
func (v *View) DeleteIntent(ctx context.Context, id intent.ID) error {
	if err := v.backend.Delete(ctx, id); err != nil {
		v.ListErr = message(err)
		return v.fail("delete", id, err)
	}

	err := v.Refresh(ctx)
	for _, kind := range v.interest.Interested(id) {
		v.close(kind)
	}
	return err
}

// ToggleReport closes the report panel if id is its target; otherwise it
// switches the panel to id and fetches the report.
func (v *View) ToggleReport(ctx context.Context, id intent.ID) error {
	return v.toggle(ctx, ReportPanel, id)
}

// ToggleJSONLD is ToggleReport for the JSON-LD panel. The two panels are
// independent.
func (v *View) ToggleJSONLD(ctx context.Context, id intent.ID) error {
	return v.toggle(ctx, JSONLDPanel, id)
}

func (v *View) toggle(ctx context.Context, kind PanelKind, id intent.ID) error {
	if target, ok := v.interest.Target(kind); ok && target == id {
		v.close(kind)
		return nil
	}
	v.close(kind)
	v.interest.Register(kind, id)
	return v.load(ctx, kind, id)
}

// load fetches the data of panel kind for id into the view.
func (v *View) load(ctx context.Context, kind PanelKind, id intent.ID) error {
	switch kind {
	case ReportPanel:
		entries, err := v.backend.Report(ctx, id)
		v.Report = ReportView{ID: id, Entries: entries}
		if err != nil {
			v.Report.Err = message(err)
			return v.fail("report", id, err)
		}
	case JSONLDPanel:
		doc, err := v.backend.JSONLD(ctx, id)
		v.JSONLD = JSONLDView{ID: id, Doc: doc}
		if err != nil {
			v.JSONLD.Err = message(err)
			return v.fail("jsonld", id, err)
		}
	}
	return nil
}

// close releases panel kind and clears its cached data.
func (v *View) close(kind PanelKind) {
	v.interest.Release(kind)
	switch kind {
	case ReportPanel:
		v.Report = ReportView{}
	case JSONLDPanel:
		v.JSONLD = JSONLDView{}
	}
}

func (v *View) fail(op string, id intent.ID, err error) error {
	v.logger.Warn("console operation failed", "op", op, "id", id.String(), "error", err)
	return err
}

// message is the user-facing text of err.
func message(err error) string {
	var cErr *errors.ConsoleError
	if stderrors.As(err, &cErr) {
		return cErr.Message
	}
	return err.Error()
}
