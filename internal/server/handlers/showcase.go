package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/hxshowcase/internal/contacts"
	"git.home.luguber.info/inful/hxshowcase/internal/examples"
	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
	"git.home.luguber.info/inful/hxshowcase/internal/version"
)

// DefaultTitle is the heading of the index page.
const DefaultTitle = "Hello, HTMX!"

// RowsPerPage is how many rows one click-to-load page holds.
const RowsPerPage = 5

// MaxPage bounds the click-to-load page so row numbers cannot overflow.
const MaxPage = 1_000_000

// Template names.
const (
	layoutMain      = "layouts/main"
	viewIndex       = "index"
	viewColor       = "examples/color"
	viewIndicator   = "examples/indicator_done"
	viewModal       = "examples/modal_content"
	viewRows        = "examples/click_to_load/rows"
	viewContact     = "examples/contacts/view"
	viewContactEdit = "examples/contacts/edit"
)

const (
	helloFromServer  = "Hello from server"
	hxRefreshHeader  = "HX-Refresh"
	contentTypePlain = "text/plain; charset=utf-8"
)

// VersionSource reports the current server version.
type VersionSource interface {
	Version() string
}

// ContactStore is the storage the click-to-edit example needs.
type ContactStore interface {
	Get(ctx context.Context, id int64) (contacts.Contact, error)
	Update(ctx context.Context, c contacts.Contact) (contacts.Contact, error)
}

// ShowcaseOptions wires the showcase handlers.
type ShowcaseOptions struct {
	Renderer       *examples.Renderer
	Catalog        []examples.Entry
	Versions       VersionSource
	Contacts       ContactStore
	IndicatorDelay time.Duration
	// Dev rebuilds the example list on every index request.
	Dev   bool
	Title string
}

// ShowcaseHandlers serves the index page and the example fragments.
type ShowcaseHandlers struct {
	opts         ShowcaseOptions
	errorAdapter *derrors.HTTPErrorAdapter

	mu       sync.RWMutex
	examples []examples.Example
}

// NewShowcaseHandlers renders the example catalog once; a catalog entry
// that fails to render is an error.
func NewShowcaseHandlers(opts ShowcaseOptions) (*ShowcaseHandlers, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	built, err := examples.Build(opts.Renderer, opts.Catalog)
	if err != nil {
		return nil, err
	}
	return &ShowcaseHandlers{
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		examples:     built,
	}, nil
}

// IndexData is what the index view is rendered with.
type IndexData struct {
	Title         string
	ServerVersion string
	Version       string
	Examples      []examples.Example
}

func (h *ShowcaseHandlers) currentExamples() ([]examples.Example, error) {
	if h.opts.Dev {
		built, err := examples.Build(h.opts.Renderer, h.opts.Catalog)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.examples = built
		h.mu.Unlock()
		return built, nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.examples, nil
}

// HandleIndex renders the index page inside the main layout.
func (h *ShowcaseHandlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := h.currentExamples()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, viewIndex, IndexData{
		Title:         h.opts.Title,
		ServerVersion: h.opts.Versions.Version(),
		Version:       version.Version,
		Examples:      list,
	}, layoutMain)
}

// HandleGet answers the get examples.
func (h *ShowcaseHandlers) HandleGet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypePlain)
	_, _ = w.Write([]byte(helloFromServer))
}

// ColorData is what the color view is rendered with.
type ColorData struct {
	Color   string
	Trigger string
	Animate bool
}

// NextColor returns the palette entry after current, wrapping around. An
// empty or unknown current yields the first colour. The palette is fixed;
// serve warns when a configured safelist does not cover it.
func NextColor(current string) string {
	i := slices.Index(stylecfg.ColorPalette, current)
	return stylecfg.ColorPalette[(i+1)%len(stylecfg.ColorPalette)]
}

// HandleColor swaps in the next colour box.
func (h *ShowcaseHandlers) HandleColor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, r, http.StatusOK, viewColor, ColorData{
		Color:   NextColor(q.Get("current")),
		Trigger: q.Get("trigger"),
		Animate: q.Get("animate") == "true",
	}, "")
}

// HandleReload tells htmx to refresh the page when the page was rendered
// by an older server version.
func (h *ShowcaseHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("timestamp") != h.opts.Versions.Version() {
		w.Header().Set(hxRefreshHeader, "true")
	}
	w.Header().Set("Content-Type", contentTypePlain)
	w.WriteHeader(http.StatusOK)
}

// HandleContact renders the read-only contact view.
func (h *ShowcaseHandlers) HandleContact(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadContact(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, viewContact, c, "")
}

// ContactForm is what the contact edit view is rendered with.
type ContactForm struct {
	Contact contacts.Contact
	Errors  map[string]string
}

// HandleContactEdit renders the edit form.
func (h *ShowcaseHandlers) HandleContactEdit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadContact(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, viewContactEdit, ContactForm{Contact: c}, "")
}

// HandleContactUpdate stores the submitted form. Invalid input re-renders
// the form with 422 so htmx swaps it back in place.
func (h *ShowcaseHandlers) HandleContactUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := contacts.ParseID(r.PathValue("id"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			derrors.WrapError(err, derrors.CategoryValidation, "invalid form").Build())
		return
	}
	submitted := contacts.Contact{
		ID:        id,
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
	}

	updated, err := h.opts.Contacts.Update(r.Context(), submitted)
	if err != nil {
		if c, ok := derrors.AsClassified(err); ok && c.Category() == derrors.CategoryValidation {
			fields, _ := c.Context().Get("fields")
			problems, _ := fields.(map[string]string)
			h.render(w, r, http.StatusUnprocessableEntity, viewContactEdit,
				ContactForm{Contact: updated, Errors: problems}, "")
			return
		}
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, viewContact, updated, "")
}

func (h *ShowcaseHandlers) loadContact(w http.ResponseWriter, r *http.Request) (contacts.Contact, bool) {
	id, err := contacts.ParseID(r.PathValue("id"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return contacts.Contact{}, false
	}
	c, err := h.opts.Contacts.Get(r.Context(), id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return contacts.Contact{}, false
	}
	return c, true
}

// RowsData is what the click-to-load rows view is rendered with.
type RowsData struct {
	Rows []int
	Next int
}

// PageRows returns the row numbers of page; pages below 1 count as 1 and
// pages past MaxPage as MaxPage.
func PageRows(page int) RowsData {
	page = max(1, min(page, MaxPage))
	first := (page-1)*RowsPerPage + 1
	rows := make([]int, RowsPerPage)
	for i := range rows {
		rows[i] = first + i
	}
	return RowsData{Rows: rows, Next: page + 1}
}

// HandleRows returns the next page of rows and a fresh load button.
func (h *ShowcaseHandlers) HandleRows(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("page")))
	if err != nil {
		page = 1
	}
	h.render(w, r, http.StatusOK, viewRows, PageRows(page), "")
}

// HandleIndicator waits the configured delay so the indicator is visible.
// A client that goes away stops the wait.
func (h *ShowcaseHandlers) HandleIndicator(w http.ResponseWriter, r *http.Request) {
	timer := time.NewTimer(h.opts.IndicatorDelay)
	defer timer.Stop()
	select {
	case <-r.Context().Done():
		slog.Debug("indicator request cancelled", logfields.Error(r.Context().Err()))
		return
	case <-timer.C:
	}
	h.render(w, r, http.StatusOK, viewIndicator, map[string]string{"Delay": h.opts.IndicatorDelay.String()}, "")
}

// HandleModal returns the modal dialog fragment.
func (h *ShowcaseHandlers) HandleModal(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, viewModal, nil, "")
}

// render buffers the whole template so a failing render still yields a
// clean error response.
func (h *ShowcaseHandlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, layout string) {
	var buf bytes.Buffer
	if err := h.opts.Renderer.Render(&buf, name, data, layout); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeHTML(w, status, buf.Bytes())
}
