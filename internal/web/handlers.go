package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hpungsan/intentdesk/internal/console"
	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// sessionCookie names the cookie that carries the console session ID.
const sessionCookie = "intentdesk_session"

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	sessions *console.Sessions
	renderer *Renderer
	logger   *slog.Logger
}

// HandleList handles GET /intents: it fetches the collection and renders
// the page.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(v *console.View) error {
		return v.Refresh(r.Context())
	})
}

// HandleToggleCreate handles POST /intents/create/toggle.
func (h *Handlers) HandleToggleCreate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(v *console.View) error {
		v.ToggleCreate()
		return nil
	})
}

// HandleCreate handles POST /intents.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	author := r.PostFormValue("author")
	content := r.PostFormValue("content")
	h.transition(w, r, func(v *console.View) error {
		if !v.CreateOpen {
			v.ToggleCreate()
		}
		return v.SubmitCreate(r.Context(), author, content)
	})
}

// HandleBeginEdit handles POST /intents/{id}/edit. The form may carry the
// content to seed; otherwise the listed content of the intent is used.
func (h *Handlers) HandleBeginEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok || !h.parseForm(w, r) {
		return
	}
	content, seeded := r.PostForm["content"]
	h.transition(w, r, func(v *console.View) error {
		seed := ""
		if seeded && len(content) > 0 {
			seed = content[0]
		} else {
			for _, in := range v.Intents {
				if in.ID == id {
					seed = in.Content
					break
				}
			}
		}
		v.BeginEdit(id, seed)
		return nil
	})
}

// HandleSubmitEdit handles POST /intents/edit.
func (h *Handlers) HandleSubmitEdit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	content := r.PostFormValue("content")
	h.transition(w, r, func(v *console.View) error {
		return v.SubmitEdit(r.Context(), content)
	})
}

// HandleCancelEdit handles POST /intents/edit/cancel.
func (h *Handlers) HandleCancelEdit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(v *console.View) error {
		v.CancelEdit()
		return nil
	})
}

// HandleDelete handles POST /intents/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.transition(w, r, func(v *console.View) error {
		return v.DeleteIntent(r.Context(), id)
	})
}

// HandleToggleReport handles POST /intents/{id}/report.
func (h *Handlers) HandleToggleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.transition(w, r, func(v *console.View) error {
		return v.ToggleReport(r.Context(), id)
	})
}

// HandleToggleJSONLD handles POST /intents/{id}/jsonld.
func (h *Handlers) HandleToggleJSONLD(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.transition(w, r, func(v *console.View) error {
		return v.ToggleJSONLD(r.Context(), id)
	})
}

// transition runs fn on the caller's session view and renders the
// resulting page in the same critical section. A failed transition still
// renders the page; the panels carry the inline message.
func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, fn func(v *console.View) error) {
	sess := h.session(w, r)
	_ = sess.Do(func(v *console.View) error {
		err := fn(v)
		if err != nil {
			h.logger.Warn("transition failed", "path", r.URL.Path, "session", sess.ID, "error", err)
		}
		h.renderer.renderPageStatus(w, r, statusFor(err), "list", h.listData(v))
		return err
	})
}

func (h *Handlers) listData(v *console.View) ListPageData {
	data := ListPageData{
		PageData: PageData{
			Title:   "Intents",
			Version: h.renderer.version,
			Nav:     "intents",
		},
		View: v,
	}
	data.ReportID, data.ReportOpen = v.ReportOpen()
	data.JSONLDID, data.JSONLDOpen = v.JSONLDOpen()
	return data
}

// session returns the caller's session, issuing a cookie for new ones.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *console.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := h.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (intent.ID, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("intent id is required"))
		return "", false
	}
	return intent.ID(id), true
}

func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form body"))
		return false
	}
	return true
}
