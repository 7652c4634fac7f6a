package httpadapter

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/PabloGalante/docshelf/internal/app/items"
	"github.com/PabloGalante/docshelf/internal/app/registry"
	"github.com/PabloGalante/docshelf/internal/domain"
	"github.com/PabloGalante/docshelf/internal/observability"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type Server struct {
	registry *registry.Service
	items    *items.Gateway
	store    domain.DocumentStore
	sessions sessions.Store
}

// NewServer wires the routes. An empty secretKey gets a random per-process key,
// which invalidates sessions on restart.
func NewServer(reg *registry.Service, gw *items.Gateway, store domain.DocumentStore, secretKey []byte) http.Handler {
	s := &Server{
		registry: reg,
		items:    gw,
		store:    store,
		sessions: newCookieStore(secretKey),
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleSwitchCollection)
	mux.HandleFunc("POST /add", s.handleAddItem)
	mux.HandleFunc("POST /delete", s.handleDeleteItem)
	mux.HandleFunc("POST /create_collection", s.handleCreateCollection)
	mux.HandleFunc("POST /delete_collection", s.handleDeleteCollection)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return chainMiddlewares(mux, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// Page
// ─────────────────────────────────────────────

type indexPage struct {
	Collections []string
	Current     string
	Items       []*domain.Item
	Flashes     []Flash
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rs := s.loadSession(r)
	page := indexPage{Items: []*domain.Item{}}
	status := http.StatusOK

	err := s.fillIndex(r, rs, &page)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to load index", "error", err)
		rs.flash(flashFor(err, ""))
		if domain.IsUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
	}

	page.Flashes = rs.flashes()
	rs.save(w, r)

	render(w, status, page)
}

func (s *Server) fillIndex(r *http.Request, rs *requestSession, page *indexPage) error {
	ctx := r.Context()

	names, err := s.registry.ListCollections(ctx)
	if err != nil {
		return err
	}
	page.Collections = names

	current, err := s.registry.Current(ctx, rs.state)
	if err != nil {
		return err
	}
	page.Current = current

	list, err := items.Collect(s.items.ListItems(ctx, current))
	if err != nil {
		return err
	}
	page.Items = list
	return nil
}

// ─────────────────────────────────────────────
// Collection handlers
// ─────────────────────────────────────────────

func (s *Server) handleSwitchCollection(w http.ResponseWriter, r *http.Request) {
	rs := s.loadSession(r)
	name := r.FormValue("collection")

	if err := s.registry.SwitchTo(r.Context(), rs.state, name); err != nil {
		rs.flash(flashFor(err, name))
	} else {
		rs.flash(domain.FlashSuccess, fmt.Sprintf("Switched to collection %q.", name))
	}

	redirectHome(w, r, rs)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	rs := s.loadSession(r)
	name := strings.TrimSpace(r.FormValue("collection_name"))

	if err := s.registry.Create(r.Context(), rs.state, name); err != nil {
		rs.flash(flashFor(err, name))
	} else {
		rs.flash(domain.FlashSuccess, fmt.Sprintf("Collection %q created.", rs.state.CurrentCollection))
	}

	redirectHome(w, r, rs)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	rs := s.loadSession(r)
	name := r.FormValue("collection_name")

	if err := s.registry.Drop(r.Context(), rs.state, name); err != nil {
		rs.flash(flashFor(err, name))
	} else {
		rs.flash(domain.FlashSuccess, fmt.Sprintf("Collection %q deleted.", name))
	}

	redirectHome(w, r, rs)
}

// ─────────────────────────────────────────────
// Item handlers
// ─────────────────────────────────────────────

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rs := s.loadSession(r)

	current, err := s.registry.Current(ctx, rs.state)
	if err == nil {
		_, err = s.items.AddItem(ctx, current, r.FormValue("name"), r.FormValue("description"))
	}

	if err != nil {
		rs.flash(flashFor(err, current))
	} else {
		rs.flash(domain.FlashSuccess, "Item added successfully!")
	}

	redirectHome(w, r, rs)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rs := s.loadSession(r)
	id := domain.ItemID(r.FormValue("delete_id"))

	current, err := s.registry.Current(ctx, rs.state)
	if err == nil {
		err = s.items.DeleteItem(ctx, current, id)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidSelection):
		rs.flash(flashFor(err, current))
	case err != nil:
		rs.flash(flashFor(err, string(id)))
	default:
		rs.flash(domain.FlashSuccess, "Item deleted successfully!")
	}

	redirectHome(w, r, rs)
}

// ─────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		observability.LoggerFromContext(r.Context()).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Error → flash mapping
// ─────────────────────────────────────────────

// flashFor turns a domain error into a user-facing message.
// subject is the collection name or item id the request was about.
func flashFor(err error, subject string) (domain.FlashCategory, string) {
	switch {
	case errors.Is(err, domain.ErrUnavailableStore):
		return domain.FlashError, "The database is unavailable, please try again later."
	case errors.Is(err, domain.ErrMissingName):
		return domain.FlashError, "Name is required to add an item."
	case errors.Is(err, domain.ErrMissingID):
		return domain.FlashError, "Item ID is required for deletion."
	case errors.Is(err, domain.ErrMalformedID):
		return domain.FlashError, fmt.Sprintf("Error deleting item: %q is not a valid item ID.", subject)
	case errors.Is(err, domain.ErrNotFound):
		return domain.FlashWarning, "No item found with that ID."
	case errors.Is(err, domain.ErrEmptyName):
		return domain.FlashError, "Collection name is required."
	case errors.Is(err, domain.ErrAlreadyExists):
		return domain.FlashError, fmt.Sprintf("Collection %q already exists.", subject)
	case errors.Is(err, domain.ErrInvalidSelection):
		if subject == "" {
			return domain.FlashError, "No collection selected. Create one first."
		}
		return domain.FlashError, fmt.Sprintf("Collection %q does not exist.", subject)
	default:
		return domain.FlashError, fmt.Sprintf("Unexpected error: %v", err)
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func redirectHome(w http.ResponseWriter, r *http.Request, rs *requestSession) {
	rs.save(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func render(w http.ResponseWriter, status int, page indexPage) {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, page); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
