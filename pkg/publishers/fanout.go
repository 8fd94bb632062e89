package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultSinkTimeout bounds each publisher so one slow sink cannot hold the run.
const DefaultSinkTimeout = 10 * time.Second

// Fanout delivers a report event to every configured publisher in turn.
type Fanout struct {
	publishers  []Publisher
	sinkTimeout time.Duration
	log         Logger
}

// NewFanout builds a dispatcher over pubs, skipping nil entries.
func NewFanout(pubs []Publisher, log Logger) *Fanout {
	f := &Fanout{sinkTimeout: DefaultSinkTimeout, log: ensureLogger(log)}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish hands evt to each publisher and returns how many accepted it.
// Failures are collected, never short-circuit the remaining sinks.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, p := range f.publishers {
		if err := f.publishOne(ctx, p, evt); err != nil {
			f.log.WarnObj("report event not delivered", "publisher_failure", map[string]any{
				"publisher_id":   p.ID(),
				"publisher_type": p.Type(),
				"error":          err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

func (f *Fanout) publishOne(ctx context.Context, p Publisher, evt Event) error {
	if f.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.sinkTimeout)
		defer cancel()
	}
	return p.Publish(ctx, evt)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases publishers holding connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
