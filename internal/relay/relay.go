// Package relay turns one raw tracker string into POSTs against the
// aggregation service.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilal/transition-relay/internal/communicator"
	"github.com/bilal/transition-relay/internal/metrics"
	"github.com/bilal/transition-relay/internal/telemetry"
	"github.com/rs/zerolog/log"
)

var (
	ErrSkipped   = errors.New("malformed structured input skipped")
	ErrTransport = errors.New("relay transport failed")
)

// Status summarises a Result.
type Status string

const (
	StatusDelivered      Status = "delivered"
	StatusSkipped        Status = "skipped"
	StatusTransportError Status = "transport_error"
	StatusBuildError     Status = "build_error"
)

// Poster sends one operation's fields upstream.
type Poster interface {
	Post(ctx context.Context, op telemetry.Operation, fields telemetry.Fields) communicator.Response
}

// Mirror receives a copy of each attempted submission.
type Mirror interface {
	Publish(ctx context.Context, m communicator.MirrorRecord) error
}

// Observer is told the outcome of every POST.
type Observer interface {
	RecordRelay(ok bool, at time.Time)
}

// Delivery is one submission and what happened to it.
type Delivery struct {
	Submission telemetry.Submission
	Fields     telemetry.Fields
	Response   communicator.Response
	BuildErr   error
}

// Result of handling one input string.
type Result struct {
	Parse      telemetry.ParseResult
	Deliveries []Delivery
}

// Status is skipped for dropped input, build_error or transport_error if
// any submission failed (build errors win), delivered otherwise.
func (r Result) Status() Status {
	if r.Parse.Skipped() {
		return StatusSkipped
	}
	status := StatusDelivered
	for _, d := range r.Deliveries {
		if d.BuildErr != nil {
			return StatusBuildError
		}
		if !d.Response.OK() {
			status = StatusTransportError
		}
	}
	return status
}

// Err is nil for a delivered result. Callers wanting best-effort semantics
// can ignore it.
func (r Result) Err() error {
	switch r.Status() {
	case StatusSkipped:
		return fmt.Errorf("%w: %s", ErrSkipped, r.Parse.Reason)
	case StatusBuildError:
		for _, d := range r.Deliveries {
			if d.BuildErr != nil {
				return d.BuildErr
			}
		}
	case StatusTransportError:
		for _, d := range r.Deliveries {
			if d.Response.Err != nil {
				return fmt.Errorf("%w: %s: %w", ErrTransport, d.Submission.Operation, d.Response.Err)
			}
			if !d.Response.OK() {
				return fmt.Errorf("%w: %s: status %d", ErrTransport, d.Submission.Operation, d.Response.StatusCode)
			}
		}
	}
	return nil
}

// Relay holds no per-call state; Handle is safe for concurrent use.
type Relay struct {
	parser   *telemetry.Parser
	poster   Poster
	mirror   Mirror
	observer Observer
	now      func() time.Time
}

type Option func(*Relay)

// WithMirror publishes every attempted submission to m.
func WithMirror(m Mirror) Option {
	return func(r *Relay) { r.mirror = m }
}

// WithObserver reports POST outcomes to o.
func WithObserver(o Observer) Option {
	return func(r *Relay) { r.observer = o }
}

// WithParser replaces the default parser, e.g. to pin the clock.
func WithParser(p *telemetry.Parser) Option {
	return func(r *Relay) { r.parser = p }
}

func New(poster Poster, opts ...Option) *Relay {
	r := &Relay{
		parser: telemetry.NewParser(),
		poster: poster,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle classifies input and relays each resulting record in order. It
// blocks until every POST has finished. Nothing is retried.
func (r *Relay) Handle(ctx context.Context, identity, input string) Result {
	parsed := r.parser.Parse(identity, input)
	metrics.ParseTotal.WithLabelValues(string(parsed.Kind), string(parsed.Outcome)).Inc()

	res := Result{Parse: parsed}
	if parsed.Skipped() {
		log.Debug().
			Str("kind", string(parsed.Kind)).
			Str("identity", identity).
			Str("reason", parsed.Reason).
			Msg("input skipped")
		return res
	}

	for _, sub := range parsed.Submissions {
		res.Deliveries = append(res.Deliveries, r.deliver(ctx, sub))
	}

	log.Debug().
		Str("kind", string(parsed.Kind)).
		Str("identity", identity).
		Str("status", string(res.Status())).
		Int("posts", len(res.Deliveries)).
		Msg("input handled")
	return res
}

func (r *Relay) deliver(ctx context.Context, sub telemetry.Submission) Delivery {
	d := Delivery{Submission: sub}

	fields, err := sub.Build()
	if err != nil {
		log.Error().Err(err).
			Str("operation", string(sub.Operation)).
			Str("callsign", sub.Callsign).
			Msg("build payload failed")
		d.BuildErr = err
		return d
	}
	d.Fields = fields
	d.Response = r.poster.Post(ctx, sub.Operation, fields)

	at := r.now()
	if r.observer != nil {
		r.observer.RecordRelay(d.Response.OK(), at)
	}
	if r.mirror != nil {
		rec := communicator.NewMirrorRecord(sub.Callsign, fields, d.Response, at)
		if err := r.mirror.Publish(ctx, rec); err != nil {
			log.Warn().Err(err).
				Str("operation", string(sub.Operation)).
				Str("correlation", d.Response.CorrelationID).
				Msg("mirror publish failed")
		}
	}
	return d
}
