package mypage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/domain"
	"github.com/dangun/myaccount/internal/memberapi"
)

// Reauthenticator forces the user to sign in again.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context) error
}

// Logout is the forced re-authentication step: it ends the server-side
// session, drops the local token and sends the user to the login view.
//
// On a failed logout call the local token is kept and only a notice is
// shown.
type Logout struct {
	API       LogoutAPI
	Headers   HeaderBuilder
	Store     credentials.Store
	Notifier  Notifier
	Navigator Navigator
	Recorder  Recorder
	LoginPath string
	Logger    *slog.Logger
}

// Reauthenticate runs the logout sequence.
func (l *Logout) Reauthenticate(ctx context.Context) error {
	logger := l.logger()

	h, err := l.Headers.Build(ctx)
	if err == nil {
		err = l.API.Logout(ctx, h)
	}
	if err != nil {
		logger.ErrorContext(ctx, "logout failed", "error", err)
		l.Notifier.Notify(ctx, Notice{Kind: NoticeError, Text: withDetail(msgLogoutFailed, statusDetail(err))})
		l.record(ctx, OutcomeTransportError)
		return err
	}

	if err := l.Store.Remove(ctx, domain.AccessTokenKey); err != nil {
		logger.ErrorContext(ctx, "failed to remove access token after logout", "error", err)
	}
	l.Notifier.Notify(ctx, Notice{Kind: NoticeSuccess, Text: msgLogoutSucceeded})
	l.record(ctx, OutcomeSuccess)
	l.Navigator.Navigate(ctx, l.LoginPath)
	return nil
}

func (l *Logout) record(ctx context.Context, outcome Outcome) {
	if l.Recorder != nil {
		l.Recorder.Record(ctx, FlowLogout, outcome)
	}
}

func (l *Logout) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// statusDetail exposes the HTTP status of a failed call to the user. Other
// transport errors stay in the logs.
func statusDetail(err error) string {
	var statusErr *memberapi.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return ""
}
