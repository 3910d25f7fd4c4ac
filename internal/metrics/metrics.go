// Package metrics exposes prometheus counters for account page flows.
package metrics

import (
	"context"

	"github.com/dangun/myaccount/internal/mypage"
	"github.com/prometheus/client_golang/prometheus"
)

// FlowRecorder counts flow outcomes by flow and outcome label.
type FlowRecorder struct {
	outcomes *prometheus.CounterVec
}

// NewFlowRecorder registers the flow counters on reg.
func NewFlowRecorder(reg prometheus.Registerer) (*FlowRecorder, error) {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "myaccount",
		Name:      "flow_outcomes_total",
		Help:      "Terminal outcomes of my-page flows.",
	}, []string{"flow", "outcome"})

	if err := reg.Register(outcomes); err != nil {
		return nil, err
	}
	return &FlowRecorder{outcomes: outcomes}, nil
}

// Record implements mypage.Recorder.
func (r *FlowRecorder) Record(_ context.Context, flow mypage.Flow, outcome mypage.Outcome) {
	r.outcomes.WithLabelValues(string(flow), string(outcome)).Inc()
}
