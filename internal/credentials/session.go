package credentials

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	// AuthSessionName is the long-lived session holding the access token
	// (the browser's local storage counterpart).
	AuthSessionName = "auth-session"
	// TabSessionName is the browser-session cookie holding one-shot flags
	// (the browser's session storage counterpart).
	TabSessionName = "tab-session"

	sessionIDKey = "sid"
)

// TabSessionOptions makes the cookie expire with the browser session.
var TabSessionOptions = &sessions.Options{
	Path:     "/",
	MaxAge:   0,
	HttpOnly: true,
}

// SessionStore keeps values in a named gorilla session reached through the
// echo-contrib session middleware. Every mutation saves the session so the
// updated cookie is written with the response.
type SessionStore struct {
	c       echo.Context
	name    string
	options *sessions.Options
}

// NewSessionStore binds a Store to the named session of the request. A nil
// options keeps the cookie store's defaults.
func NewSessionStore(c echo.Context, name string, options *sessions.Options) *SessionStore {
	return &SessionStore{c: c, name: name, options: options}
}

func (s *SessionStore) session() (*sessions.Session, error) {
	sess, err := session.Get(s.name, s.c)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", s.name, err)
	}
	if s.options != nil {
		sess.Options = s.options
	}
	return sess, nil
}

func (s *SessionStore) Get(_ context.Context, key string) (string, error) {
	sess, err := s.session()
	if err != nil {
		return "", err
	}
	v, ok := sess.Values[key].(string)
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *SessionStore) Set(_ context.Context, key, value string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	sess.Values[key] = value
	return sess.Save(s.c.Request(), s.c.Response())
}

func (s *SessionStore) Remove(_ context.Context, key string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	if _, ok := sess.Values[key]; !ok {
		return nil
	}
	delete(sess.Values, key)
	return sess.Save(s.c.Request(), s.c.Response())
}

// SessionID returns the opaque id of the browser's auth session, creating
// one on first use. It namespaces server-side state such as RedisStore keys
// and in-flight gates.
func SessionID(c echo.Context) (string, error) {
	sess, err := session.Get(AuthSessionName, c)
	if err != nil {
		return "", fmt.Errorf("load session %q: %w", AuthSessionName, err)
	}
	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", fmt.Errorf("save session id: %w", err)
	}
	return id, nil
}
