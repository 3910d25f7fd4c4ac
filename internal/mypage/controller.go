// Package mypage implements the "my account" page: the access guard, the
// profile loader and the user-triggered flows that update, delete or leave
// the account.
package mypage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/domain"
)

// State is the position of a page instance in its lifecycle.
type State int

const (
	StateInitial State = iota
	StateRedirectedToLogin
	StateLoading
	StateLoaded
	StateLoadFailed
	StateUpdatingProfile
	StateReauthRedirect
	StateUpdatingAddress
	StateDeleting
	StateDeleted
	StateRedirectedToListing
)

var stateNames = map[State]string{
	StateInitial:             "initial",
	StateRedirectedToLogin:   "redirected-to-login",
	StateLoading:             "loading",
	StateLoaded:              "loaded",
	StateLoadFailed:          "load-failed",
	StateUpdatingProfile:     "updating-profile",
	StateReauthRedirect:      "reauth-redirect",
	StateUpdatingAddress:     "updating-address",
	StateDeleting:            "deleting",
	StateDeleted:             "deleted",
	StateRedirectedToListing: "redirected-to-listing",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Paths are the navigation targets of the page.
type Paths struct {
	Login   string
	Listing string
	Home    string
}

// Deps are the collaborators of a Controller.
type Deps struct {
	// Store holds the access token; Session holds session-scoped flags.
	Store   credentials.Store
	Session credentials.Store

	Headers   HeaderBuilder
	API       API
	Document  Document
	Notifier  Notifier
	Confirmer Confirmer
	Navigator Navigator
	Paths     Paths

	// Optional.
	Recorder Recorder
	Reauth   Reauthenticator
	Gate     *Gate
	GateKey  string
	Logger   *slog.Logger
}

// Controller sequences one page instance. Flows are awaited to completion
// and run their steps strictly in order.
type Controller struct {
	store     credentials.Store
	session   credentials.Store
	headers   HeaderBuilder
	api       API
	doc       Document
	notifier  Notifier
	confirmer Confirmer
	navigator Navigator
	paths     Paths
	recorder  Recorder
	reauth    Reauthenticator
	gate      *Gate
	gateKey   string
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	settled State
}

// New creates a Controller. When deps.Reauth is nil the controller uses a
// Logout built from the same collaborators.
func New(deps Deps) *Controller {
	c := &Controller{
		store:     deps.Store,
		session:   deps.Session,
		headers:   deps.Headers,
		api:       deps.API,
		doc:       deps.Document,
		notifier:  deps.Notifier,
		confirmer: deps.Confirmer,
		navigator: deps.Navigator,
		paths:     deps.Paths,
		recorder:  deps.Recorder,
		reauth:    deps.Reauth,
		gate:      deps.Gate,
		gateKey:   deps.GateKey,
		logger:    deps.Logger,
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.reauth == nil {
		c.reauth = &Logout{
			API:       deps.API,
			Headers:   deps.Headers,
			Store:     deps.Store,
			Notifier:  deps.Notifier,
			Navigator: deps.Navigator,
			Recorder:  c.recorder,
			LoginPath: deps.Paths.Login,
			Logger:    c.logger,
		}
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// settle records a resting state a later action returns to.
func (c *Controller) settle(s State) {
	c.mu.Lock()
	c.state = s
	c.settled = s
	c.mu.Unlock()
}

func (c *Controller) restore() {
	c.mu.Lock()
	c.state = c.settled
	c.mu.Unlock()
}

// Open is page entry: the access guard followed by the profile load.
func (c *Controller) Open(ctx context.Context) error {
	if !c.Guard(ctx) {
		return domain.ErrUnauthenticated
	}
	return c.LoadProfile(ctx)
}

// Guard checks that an access token is stored. It does not validate the
// token. Without one the page is cleared, the user is told to sign in and
// sent to the login view; nothing else runs.
func (c *Controller) Guard(ctx context.Context) bool {
	present, err := credentials.Present(ctx, c.store, domain.AccessTokenKey)
	if err != nil {
		c.logger.WarnContext(ctx, "could not read access token, treating as absent", "error", err)
	}
	if present {
		return true
	}

	c.doc.Clear()
	c.notifier.Notify(ctx, Notice{Kind: NoticeError, Text: msgLoginRequired})
	c.recorder.Record(ctx, FlowGuard, OutcomeUnauthenticated)
	c.settle(StateRedirectedToLogin)
	c.navigator.Navigate(ctx, c.paths.Login)
	return false
}

// LoadProfile fetches the member and copies it into the page.
func (c *Controller) LoadProfile(ctx context.Context) error {
	c.setState(StateLoading)

	resp, err := c.fetchProfile(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "profile load failed", "error", err)
		c.notifier.Notify(ctx, Notice{Kind: NoticeError, Text: msgLoadFailed})
		c.recorder.Record(ctx, FlowLoad, outcomeOf(err))
		c.settle(StateLoadFailed)
		return err
	}

	c.doc.SetValue(FieldEmail, resp.Email)
	c.doc.SetValue(FieldNickname, resp.Nickname)
	c.doc.SetValue(FieldStreet, resp.Address.Street)
	c.doc.SetValue(FieldDetail, resp.Address.Detail)
	c.doc.SetValue(FieldZipcode, resp.Address.Zipcode)
	c.doc.SetHeading(Heading(resp.Nickname))

	c.recorder.Record(ctx, FlowLoad, OutcomeSuccess)
	c.settle(StateLoaded)
	return nil
}

func (c *Controller) fetchProfile(ctx context.Context) (*domain.ProfileView, error) {
	h, err := c.headers.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	resp, err := c.api.MyInfo(ctx, h)
	if err != nil {
		return nil, err
	}
	if !resp.Is(domain.CodeProfileRetrieved) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnexpectedCode, resp.Code)
	}
	profile, err := resp.Profile()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return profile, nil
}

// UpdateProfile submits the nickname field. A successful change invalidates
// the session, so it is followed by the re-authentication step.
func (c *Controller) UpdateProfile(ctx context.Context) error {
	release, err := c.acquire(ctx, FlowUpdateProfile)
	if err != nil {
		return err
	}
	defer release()

	c.setState(StateUpdatingProfile)
	req := domain.ProfileUpdate{Nickname: c.doc.Value(FieldNickname)}

	err = c.write(ctx, func(ctx context.Context, h http.Header) (*domain.ServerResponse, error) {
		return c.api.UpdateInfo(ctx, h, req)
	}, FlowUpdateProfile, domain.CodeUpdateSucceeded, msgUpdateFailed)
	if err != nil {
		c.restore()
		return err
	}

	c.notifier.Notify(ctx, Notice{Kind: NoticeSuccess, Text: msgUpdateSucceeded})
	c.recorder.Record(ctx, FlowUpdateProfile, OutcomeSuccess)

	if err := c.reauth.Reauthenticate(ctx); err != nil {
		c.restore()
		return err
	}
	c.settle(StateReauthRedirect)
	return nil
}

// Reauthenticate runs the forced re-authentication step on its own, as a
// plain logout.
func (c *Controller) Reauthenticate(ctx context.Context) error {
	release, err := c.acquire(ctx, FlowLogout)
	if err != nil {
		return err
	}
	defer release()

	if err := c.reauth.Reauthenticate(ctx); err != nil {
		return err
	}
	c.settle(StateReauthRedirect)
	return nil
}

// UpdateAddress submits the address fields. It does not end the session.
func (c *Controller) UpdateAddress(ctx context.Context) error {
	release, err := c.acquire(ctx, FlowUpdateAddress)
	if err != nil {
		return err
	}
	defer release()

	c.setState(StateUpdatingAddress)
	req := domain.AddressUpdate{
		Street:  c.doc.Value(FieldStreet),
		Detail:  c.doc.Value(FieldDetail),
		Zipcode: c.doc.Value(FieldZipcode),
	}

	err = c.write(ctx, func(ctx context.Context, h http.Header) (*domain.ServerResponse, error) {
		return c.api.UpdateAddress(ctx, h, req)
	}, FlowUpdateAddress, domain.CodeUpdateSucceeded, msgUpdateFailed)
	if err != nil {
		c.restore()
		return err
	}

	c.notifier.Notify(ctx, Notice{Kind: NoticeSuccess, Text: msgUpdateSucceeded})
	c.recorder.Record(ctx, FlowUpdateAddress, OutcomeSuccess)
	c.settle(StateLoaded)
	return nil
}

// DeleteAccount asks for confirmation and deletes the member. The token is
// removed only when the backend confirms the deletion.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	release, err := c.acquire(ctx, FlowDelete)
	if err != nil {
		return err
	}
	defer release()

	if !c.confirmer.Confirm(ctx, DeleteConfirmPrompt) {
		c.recorder.Record(ctx, FlowDelete, OutcomeDeclined)
		return domain.ErrNotConfirmed
	}

	c.setState(StateDeleting)
	err = c.write(ctx, c.api.DeleteInfo, FlowDelete, domain.CodeDeleteSucceeded, msgDeleteFailed)
	if err != nil {
		c.restore()
		return err
	}

	if err := c.store.Remove(ctx, domain.AccessTokenKey); err != nil {
		c.logger.ErrorContext(ctx, "failed to remove access token after account deletion", "error", err)
	}
	c.notifier.Notify(ctx, Notice{Kind: NoticeSuccess, Text: msgDeleteSucceeded})
	c.recorder.Record(ctx, FlowDelete, OutcomeSuccess)
	c.settle(StateDeleted)
	c.navigator.Navigate(ctx, c.paths.Home)
	return nil
}

// ViewMyPosts marks the listing view to show the member's own posts and
// navigates there. The flag is written before navigation.
func (c *Controller) ViewMyPosts(ctx context.Context) error {
	release, err := c.acquire(ctx, FlowViewMyPosts)
	if err != nil {
		return err
	}
	defer release()

	if err := c.session.Set(ctx, domain.ViewMyPostsKey, "true"); err != nil {
		c.logger.ErrorContext(ctx, "failed to store listing intent", "error", err)
		c.notifier.Notify(ctx, Notice{Kind: NoticeError, Text: msgPostsFailed})
		c.recorder.Record(ctx, FlowViewMyPosts, OutcomeStorageError)
		return err
	}

	c.recorder.Record(ctx, FlowViewMyPosts, OutcomeSuccess)
	c.settle(StateRedirectedToListing)
	c.navigator.Navigate(ctx, c.paths.Listing)
	return nil
}

// write builds the headers, runs call and interprets the response. Every
// failure has been notified and recorded when it returns an error.
func (c *Controller) write(
	ctx context.Context,
	call func(context.Context, http.Header) (*domain.ServerResponse, error),
	flow Flow, successCode, failureMsg string,
) error {
	var resp *domain.ServerResponse
	h, err := c.headers.Build(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrTransport, err)
	} else {
		resp, err = call(ctx, h)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "request failed", "flow", flow, "error", err)
		c.notifier.Notify(ctx, Notice{Kind: NoticeError, Text: withDetail(failureMsg, statusDetail(err))})
		c.recorder.Record(ctx, flow, OutcomeTransportError)
		return err
	}
	if !resp.Is(successCode) {
		c.logger.WarnContext(ctx, "request rejected", "flow", flow, "code", resp.Code, "message", resp.Message)
		c.notifier.Notify(ctx, Notice{Kind: NoticeError, Text: withDetail(failureMsg, resp.Message)})
		c.recorder.Record(ctx, flow, OutcomeRejected)
		return fmt.Errorf("%w: %s", domain.ErrUnexpectedCode, resp.Code)
	}
	return nil
}

func (c *Controller) acquire(ctx context.Context, flow Flow) (func(), error) {
	if c.gate == nil {
		return func() {}, nil
	}
	release, ok := c.gate.TryAcquire(c.gateKey)
	if !ok {
		c.notifier.Notify(ctx, Notice{Kind: NoticeInfo, Text: msgBusy})
		c.recorder.Record(ctx, flow, OutcomeBusy)
		return nil, domain.ErrBusy
	}
	return release, nil
}

func outcomeOf(err error) Outcome {
	if errors.Is(err, domain.ErrUnexpectedCode) {
		return OutcomeRejected
	}
	return OutcomeTransportError
}
