package httpadapter

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/PabloGalante/docshelf/internal/domain"
	"github.com/PabloGalante/docshelf/internal/observability"
)

const (
	sessionName          = "docshelf"
	sessionKeyCollection = "collection"
)

// Flash is a one-shot status message shown on the next page render.
type Flash struct {
	Category domain.FlashCategory
	Message  string
}

func init() {
	gob.Register(Flash{})
}

func newCookieStore(secretKey []byte) *sessions.CookieStore {
	if len(secretKey) == 0 {
		secretKey = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(secretKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// requestSession pairs the cookie session with the domain view of it.
type requestSession struct {
	raw   *sessions.Session
	state *domain.Session
}

// loadSession never fails: an undecodable cookie yields a fresh session.
func (s *Server) loadSession(r *http.Request) *requestSession {
	raw, err := s.sessions.Get(r, sessionName)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("discarding invalid session cookie", "error", err)
	}

	current, _ := raw.Values[sessionKeyCollection].(string)
	return &requestSession{
		raw:   raw,
		state: &domain.Session{CurrentCollection: current},
	}
}

func (rs *requestSession) flash(category domain.FlashCategory, msg string) {
	rs.raw.AddFlash(Flash{Category: category, Message: msg})
}

func (rs *requestSession) flashes() []Flash {
	var out []Flash
	for _, v := range rs.raw.Flashes() {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// save writes the domain state back into the cookie.
func (rs *requestSession) save(w http.ResponseWriter, r *http.Request) {
	if rs.state.CurrentCollection == "" {
		delete(rs.raw.Values, sessionKeyCollection)
	} else {
		rs.raw.Values[sessionKeyCollection] = rs.state.CurrentCollection
	}

	if err := rs.raw.Save(r, w); err != nil {
		observability.LoggerFromContext(r.Context()).Error("failed to save session", "error", err)
	}
}
