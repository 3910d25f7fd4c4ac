package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/domain"
	"github.com/dangun/myaccount/internal/headers"
	"github.com/dangun/myaccount/internal/middleware"
	"github.com/dangun/myaccount/internal/mypage"
	"github.com/dangun/myaccount/internal/rendering"
	"github.com/dangun/myaccount/internal/view"
	"github.com/dangun/myaccount/web/src/templates/layouts"
	"github.com/dangun/myaccount/web/src/templates/pages"
	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// MyPagePath is where the account page is served.
const MyPagePath = "/my-page"

// TokenStoreFunc resolves where the access token of a request lives.
type TokenStoreFunc func(c echo.Context, sessionID string) (credentials.Store, error)

// RecorderFunc builds the outcome recorder of a request.
type RecorderFunc func(c echo.Context, sessionID string) mypage.Recorder

// CookieTokens keeps the access token in the auth session cookie.
func CookieTokens(c echo.Context, _ string) (credentials.Store, error) {
	return credentials.NewSessionStore(c, credentials.AuthSessionName, nil), nil
}

// RedisTokens keeps the access token in Redis, scoped by browser session.
func RedisTokens(base *credentials.RedisStore) TokenStoreFunc {
	return func(_ echo.Context, sessionID string) (credentials.Store, error) {
		return base.Scoped(sessionID), nil
	}
}

// MyPageForm carries the inputs of every form on the page. Fields a form
// does not submit stay empty.
type MyPageForm struct {
	Email    string `form:"email"`
	Nickname string `form:"nickName"`
	Street   string `form:"street"`
	Detail   string `form:"detail"`
	Zipcode  string `form:"zipcode"`
	Confirm  string `form:"confirm"`
}

// MyPageHandler serves the account page and its actions.
type MyPageHandler struct {
	api       mypage.API
	paths     mypage.Paths
	tokens    TokenStoreFunc
	recorders RecorderFunc
	gate      *mypage.Gate
	renderer  rendering.Renderer
}

// MyPageOption configures a MyPageHandler.
type MyPageOption func(*MyPageHandler)

// WithTokens sets the token backend. The default is CookieTokens.
func WithTokens(f TokenStoreFunc) MyPageOption {
	return func(h *MyPageHandler) { h.tokens = f }
}

// WithRecorders sets the outcome recorder factory.
func WithRecorders(f RecorderFunc) MyPageOption {
	return func(h *MyPageHandler) { h.recorders = f }
}

// WithGate serialises the flows of each browser session.
func WithGate(gate *mypage.Gate) MyPageOption {
	return func(h *MyPageHandler) { h.gate = gate }
}

// WithRenderer sets how responses are rendered. The default is
// rendering.New().
func WithRenderer(r rendering.Renderer) MyPageOption {
	return func(h *MyPageHandler) { h.renderer = r }
}

// NewMyPageHandler creates a new MyPageHandler.
func NewMyPageHandler(api mypage.API, paths mypage.Paths, opts ...MyPageOption) *MyPageHandler {
	h := &MyPageHandler{api: api, paths: paths, tokens: CookieTokens, renderer: rendering.New()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get handles GET /my-page: the access guard and the profile load.
func (h *MyPageHandler) Get(c echo.Context) error {
	page := newWebPage()
	ctrl, err := h.controller(c, page)
	if err != nil {
		return err
	}
	// Every outcome has been put on the page.
	_ = ctrl.Open(c.Request().Context())
	return h.respond(c, page, nil)
}

// UpdateProfile handles POST /my-page/profile.
func (h *MyPageHandler) UpdateProfile(c echo.Context) error {
	return h.action(c, (*mypage.Controller).UpdateProfile)
}

// UpdateAddress handles POST /my-page/address.
func (h *MyPageHandler) UpdateAddress(c echo.Context) error {
	return h.action(c, (*mypage.Controller).UpdateAddress)
}

// Delete handles POST /my-page/delete.
func (h *MyPageHandler) Delete(c echo.Context) error {
	return h.action(c, (*mypage.Controller).DeleteAccount)
}

// MyPosts handles POST /my-page/posts.
func (h *MyPageHandler) MyPosts(c echo.Context) error {
	return h.action(c, (*mypage.Controller).ViewMyPosts)
}

// action runs a user-triggered flow. The guard runs on every request since
// each one is a fresh page instance.
func (h *MyPageHandler) action(c echo.Context, run func(*mypage.Controller, context.Context) error) error {
	var form MyPageForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	page := newWebPage()
	page.values[mypage.FieldEmail] = form.Email
	page.values[mypage.FieldNickname] = form.Nickname
	page.values[mypage.FieldStreet] = form.Street
	page.values[mypage.FieldDetail] = form.Detail
	page.values[mypage.FieldZipcode] = form.Zipcode
	page.confirmed = form.Confirm == "true"

	ctrl, err := h.controller(c, page)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var flowErr error
	if ctrl.Guard(ctx) {
		flowErr = run(ctrl, ctx)
	}
	return h.respond(c, page, flowErr)
}

func (h *MyPageHandler) controller(c echo.Context, page *webPage) (*mypage.Controller, error) {
	sessionID, err := credentials.SessionID(c)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	tokens, err := h.tokens(c, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve token store: %w", err)
	}

	var recorder mypage.Recorder
	if h.recorders != nil {
		recorder = h.recorders(c, sessionID)
	}

	return mypage.New(mypage.Deps{
		Store:     tokens,
		Session:   credentials.NewSessionStore(c, credentials.TabSessionName, credentials.TabSessionOptions),
		Headers:   headers.New(tokens),
		API:       h.api,
		Document:  page,
		Notifier:  page,
		Confirmer: page,
		Navigator: page,
		Paths:     h.paths,
		Recorder:  recorder,
		Gate:      h.gate,
		GateKey:   sessionID,
		Logger:    middleware.FromContext(c.Request().Context()),
	}), nil
}

// respond turns the page into a response. A navigation to another page
// shows the notices first and leaves once they are acknowledged; otherwise
// GET renders the whole page, htmx actions the notices only, and plain form
// posts return to the page with the notices as flash messages.
func (h *MyPageHandler) respond(c echo.Context, page *webPage, flowErr error) error {
	data := page.data()

	if target := page.navigation(); target != "" {
		return h.leave(c, target, data.Notices)
	}

	status := http.StatusOK
	if errors.Is(flowErr, domain.ErrBusy) {
		status = http.StatusConflict
	}

	switch {
	case c.Request().Method == http.MethodGet:
		flashes := view.GetFlashData(c)
		return h.renderer.RenderPage(c, status, layouts.Base("My Page", flashes, pages.MyPage(data)))
	case isHTMX(c):
		return h.renderer.RenderPage(c, status, g.Group{pages.Notices(data.Notices)})
	default:
		flashAll(c, data.Notices)
		return c.Redirect(http.StatusSeeOther, MyPagePath)
	}
}

// leave sends the browser to target. Flash messages are only read by this
// page, so notices for other pages are shown here before leaving.
func (h *MyPageHandler) leave(c echo.Context, target string, notices []mypage.Notice) error {
	if target == MyPagePath {
		flashAll(c, notices)
	} else if len(notices) > 0 {
		departure := pages.Departure(notices, target)
		if isHTMX(c) {
			return h.renderer.RenderPage(c, http.StatusOK, departure)
		}
		return h.renderer.RenderPage(c, http.StatusOK, layouts.Base("My Page", view.FlashData{}, departure))
	}

	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func flashAll(c echo.Context, notices []mypage.Notice) {
	for _, n := range notices {
		if err := flash(c, n); err != nil {
			middleware.FromContext(c.Request().Context()).Warn("could not store notice", "error", err, slog.String("notice", n.Text))
		}
	}
}

func flash(c echo.Context, n mypage.Notice) error {
	switch n.Kind {
	case mypage.NoticeSuccess:
		return view.SetFlashSuccess(c, n.Text)
	case mypage.NoticeInfo:
		return view.SetFlashInfo(c, n.Text)
	default:
		return view.SetFlashError(c, n.Text)
	}
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
