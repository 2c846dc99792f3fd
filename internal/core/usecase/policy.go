package usecase

import (
	"time"

	"github.com/avoelk/paperroute/internal/core/domain"
)

// Policy is the immutable routing configuration threaded through the
// cascade and the decision engine. It is built once at startup; pure
// logic never reads ambient state.
type Policy struct {
	Topics               []domain.Topic
	DefaultTopic         string
	GateThreshold        float64
	InvoiceConfidenceMin float64
	MatchIBANs           []string
}

// Observer receives pipeline events for metrics. Implementations must
// be safe for use from a single poller goroutine.
type Observer interface {
	IterationFinished(duration time.Duration, err error)
	DocumentEvaluated(status string)
	ClassifierCall(stage string)
	Forwarded(topic string)
}

// Document evaluation statuses reported to the Observer.
const (
	StatusDone         = "done"
	StatusSkippedEmpty = "skipped_empty"
	StatusAlreadyDone  = "already_done"
)

type nopObserver struct{}

func (nopObserver) IterationFinished(time.Duration, error) {}
func (nopObserver) DocumentEvaluated(string)               {}
func (nopObserver) ClassifierCall(string)                  {}
func (nopObserver) Forwarded(string)                       {}

// NopObserver is used when metrics are not wired.
var NopObserver Observer = nopObserver{}
