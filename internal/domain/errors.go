package domain

import "errors"

// Sentinel errors for the account page. Flows wrap these so callers can
// classify a failure with errors.Is without parsing messages.
var (
	ErrUnauthenticated   = errors.New("access token is not present")
	ErrTransport         = errors.New("member backend request failed")
	ErrMalformedResponse = errors.New("member backend returned a malformed response")
	ErrUnexpectedCode    = errors.New("member backend returned an unexpected response code")
	ErrNotConfirmed      = errors.New("action was not confirmed")
	ErrBusy              = errors.New("another request is already in progress")
)
