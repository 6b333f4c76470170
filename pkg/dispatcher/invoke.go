package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gptr-ai/researcher-mcp/pkg/errors"
	"github.com/gptr-ai/researcher-mcp/pkg/logging"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
)

// handlerOutcome carries a handler's return values across the
// invocation goroutine boundary.
type handlerOutcome struct {
	payload interface{}
	err     error
}

// invoke runs a single already-validated handler and converts every
// outcome into an envelope. The handler runs in its own goroutine so a
// configured timeout or a cancelled context can release the caller; an
// abandoned handler keeps its cancelled context as its only stop
// signal, and its late result is dropped on the buffered channel.
func (d *Dispatcher) invoke(ctx context.Context, ns Namespace, name string, handler func(ctx context.Context) (interface{}, error)) protocol.InvocationResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var deadline <-chan time.Time
	if d.callTimeout > 0 {
		timer := time.NewTimer(d.callTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	outcomes := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panicked",
					logging.String("namespace", string(ns)),
					logging.String("name", name),
					logging.Any("panic", r),
				)
				outcomes <- handlerOutcome{err: errors.HandlerPanic(name, r)}
			}
		}()
		payload, err := handler(ctx)
		outcomes <- handlerOutcome{payload: payload, err: err}
	}()

	select {
	case outcome := <-outcomes:
		if outcome.err != nil {
			return failureEnvelope(name, outcome.err)
		}
		return d.successEnvelope(name, outcome.payload)

	case <-deadline:
		cancel()
		return protocol.Fail(&protocol.ErrorDescriptor{
			Kind:    protocol.ErrKindTimeout,
			Name:    name,
			Message: errors.CallTimeout(name, d.callTimeout.String()).Error(),
		})

	case <-ctx.Done():
		cancelErr := errors.CallCancelled(name)
		if ctx.Err() == context.DeadlineExceeded {
			return protocol.Fail(&protocol.ErrorDescriptor{
				Kind:    protocol.ErrKindTimeout,
				Name:    name,
				Message: ctx.Err().Error(),
			})
		}
		return protocol.Fail(&protocol.ErrorDescriptor{
			Kind:    protocol.ErrKindHandler,
			Name:    name,
			Message: cancelErr.Error(),
			Cause:   cancelErr.CauseTag(),
		})
	}
}

// successEnvelope wraps a handler payload after enforcing wire safety:
// the payload must reduce to JSON primitives, arrays and string-keyed
// maps or the invocation is reported as a handler failure.
func (d *Dispatcher) successEnvelope(name string, payload interface{}) protocol.InvocationResult {
	safe, err := normalizePayload(payload)
	if err != nil {
		wireErr := errors.WireUnsafePayload(name, err)
		d.logger.Warn("discarding wire-unsafe handler payload",
			logging.String("name", name),
			logging.ErrorField(err),
		)
		return protocol.Fail(&protocol.ErrorDescriptor{
			Kind:    protocol.ErrKindHandler,
			Name:    name,
			Message: wireErr.Message(),
			Cause:   wireErr.CauseTag(),
		})
	}
	return protocol.Ok(safe)
}

// failureEnvelope converts a handler error into the envelope, carrying
// the machine cause tag when the error is a structured one.
func failureEnvelope(name string, err error) protocol.InvocationResult {
	desc := &protocol.ErrorDescriptor{
		Kind: protocol.ErrKindHandler,
		Name: name,
	}
	if structured, ok := errors.AsError(err); ok {
		desc.Message = structured.Error()
		desc.Cause = structured.CauseTag()
		if structured.Category() == errors.CategoryTimeout {
			desc.Kind = protocol.ErrKindTimeout
		}
	} else {
		desc.Message = err.Error()
	}
	return protocol.Fail(desc)
}

// normalizePayload round-trips the payload through JSON so the
// envelope only ever carries primitives, ordered sequences and
// string-keyed maps regardless of the concrete types a handler used.
func normalizePayload(payload interface{}) (interface{}, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var safe interface{}
	if err := json.Unmarshal(data, &safe); err != nil {
		return nil, err
	}
	return safe, nil
}
