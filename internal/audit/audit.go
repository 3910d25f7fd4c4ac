// Package audit publishes the outcome of every account page flow on the
// event bus and logs them from a subscriber.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/dangun/myaccount/internal/mypage"
	"github.com/dangun/myaccount/internal/pubsub"
)

// AccountEvent is the payload of the account events topic.
type AccountEvent struct {
	Flow    string    `json:"flow"`
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
}

// AccountEvents is the topic flow outcomes are published on.
var AccountEvents = pubsub.NewEvent[AccountEvent]("account.events")

// Recorder publishes flow outcomes for one session.
type Recorder struct {
	pub       pubsub.Publisher
	sessionID string
	now       func() time.Time
}

// NewRecorder creates a Recorder tagging events with sessionID.
func NewRecorder(pub pubsub.Publisher, sessionID string) *Recorder {
	return &Recorder{pub: pub, sessionID: sessionID, now: time.Now}
}

// Record implements mypage.Recorder. Publishing failures are logged only.
func (r *Recorder) Record(ctx context.Context, flow mypage.Flow, outcome mypage.Outcome) {
	ev := AccountEvent{Flow: string(flow), Outcome: string(outcome), At: r.now().UTC()}
	if err := pubsub.Publish(ctx, r.pub, AccountEvents, r.sessionID, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish account event", "flow", flow, "outcome", outcome, "error", err)
	}
}

// Subscribe logs every account event at info level until ctx is done.
func Subscribe(ctx context.Context, sub pubsub.Subscriber, logger *slog.Logger) error {
	return sub.Subscribe(ctx, AccountEvents.Name(), func(ctx context.Context, msg pubsub.Message) error {
		ev, err := pubsub.Decode(AccountEvents, msg)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "account event",
			"session_id", msg.SessionID, "flow", ev.Flow, "outcome", ev.Outcome, "at", ev.At)
		return nil
	})
}
