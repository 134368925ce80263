package console

import (
	"context"

	"github.com/hpungsan/intentdesk/internal/intent"
)

// Backend is the set of intent operations the console drives.
// *client.Client satisfies it.
type Backend interface {
	List(ctx context.Context) ([]intent.Intent, error)
	Create(ctx context.Context, d intent.Draft) (*intent.Intent, error)
	Update(ctx context.Context, id intent.ID, p intent.Patch) error
	Delete(ctx context.Context, id intent.ID) error
	Report(ctx context.Context, id intent.ID) ([]intent.ReportEntry, error)
	JSONLD(ctx context.Context, id intent.ID) (intent.Document, error)
}

// PanelKind names a per-intent detail panel.
type PanelKind string

const (
	ReportPanel PanelKind = "report"
	JSONLDPanel PanelKind = "jsonld"
)

// panelOrder fixes iteration order for Interested.
var panelOrder = []PanelKind{ReportPanel, JSONLDPanel}

// Interest records which intent each open detail panel displays.
// A panel with no registered target is closed. Each kind holds at most one
// target, which is what keeps every detail panel single-selection.
type Interest struct {
	targets map[PanelKind]intent.ID
}

// Register points panel kind at id, replacing any previous target.
func (in *Interest) Register(kind PanelKind, id intent.ID) {
	if in.targets == nil {
		in.targets = make(map[PanelKind]intent.ID, len(panelOrder))
	}
	in.targets[kind] = id
}

// Release closes panel kind.
func (in *Interest) Release(kind PanelKind) {
	delete(in.targets, kind)
}

// Target returns the intent panel kind displays, if it is open.
func (in *Interest) Target(kind PanelKind) (intent.ID, bool) {
	id, ok := in.targets[kind]
	return id, ok
}

// Interested returns the open panels that display id.
func (in *Interest) Interested(id intent.ID) []PanelKind {
	var kinds []PanelKind
	for _, kind := range panelOrder {
		if target, ok := in.targets[kind]; ok && target == id {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// ReportView is the last-fetched report of the active report target.
type ReportView struct {
	ID      intent.ID
	Entries []intent.ReportEntry
	Err     string
}

// JSONLDView is the last-fetched JSON-LD document of the active JSON-LD target.
type JSONLDView struct {
	ID  intent.ID
	Doc intent.Document
	Err string
}
