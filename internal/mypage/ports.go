package mypage

import (
	"context"
	"net/http"

	"github.com/dangun/myaccount/internal/domain"
)

// API is the subset of the member backend the page calls.
type API interface {
	MyInfo(ctx context.Context, h http.Header) (*domain.ServerResponse, error)
	UpdateInfo(ctx context.Context, h http.Header, req domain.ProfileUpdate) (*domain.ServerResponse, error)
	UpdateAddress(ctx context.Context, h http.Header, req domain.AddressUpdate) (*domain.ServerResponse, error)
	DeleteInfo(ctx context.Context, h http.Header) (*domain.ServerResponse, error)
	LogoutAPI
}

// LogoutAPI ends the server-side session.
type LogoutAPI interface {
	Logout(ctx context.Context, h http.Header) error
}

// HeaderBuilder produces the headers of an authenticated request.
type HeaderBuilder interface {
	Build(ctx context.Context) (http.Header, error)
}

// Field names an input slot of the page.
type Field string

const (
	FieldEmail    Field = "email"
	FieldNickname Field = "nickName"
	FieldStreet   Field = "street"
	FieldDetail   Field = "detail"
	FieldZipcode  Field = "zipcode"
)

// Fields lists every slot in display order.
var Fields = []Field{FieldEmail, FieldNickname, FieldStreet, FieldDetail, FieldZipcode}

// Document is the page the controller reads inputs from and renders into.
// Value of a slot that was never filled is the empty string.
type Document interface {
	Value(f Field) string
	SetValue(f Field, v string)
	SetHeading(text string)
	Clear()
}

// NoticeKind classifies a notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a blocking notification shown to the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Notifier surfaces notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Confirmer asks a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Navigator leaves the page for target.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// Recorder observes the terminal outcome of every flow.
type Recorder interface {
	Record(ctx context.Context, flow Flow, outcome Outcome)
}

// Flow names a controller flow.
type Flow string

const (
	FlowGuard         Flow = "guard"
	FlowLoad          Flow = "load_profile"
	FlowUpdateProfile Flow = "update_profile"
	FlowLogout        Flow = "logout"
	FlowUpdateAddress Flow = "update_address"
	FlowDelete        Flow = "delete_account"
	FlowViewMyPosts   Flow = "view_my_posts"
)

// Outcome is how a flow ended.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeTransportError  Outcome = "transport_error"
	OutcomeRejected        Outcome = "rejected"
	OutcomeDeclined        Outcome = "declined"
	OutcomeBusy            Outcome = "busy"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeStorageError    Outcome = "storage_error"
)

// Recorders fans an outcome out to several recorders.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, flow Flow, outcome Outcome) {
	for _, r := range rs {
		if r != nil {
			r.Record(ctx, flow, outcome)
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Flow, Outcome) {}
