package odds

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnavailable = errors.New("odds unavailable")

// Provider produces league odds snapshots. Implementations may perform I/O
// and should honour ctx.
type Provider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// StaticProvider serves a fixed snapshot.
type StaticProvider struct {
	snap *Snapshot
}

func NewStaticProvider(snap *Snapshot) *StaticProvider {
	return &StaticProvider{snap: snap}
}

func (p *StaticProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if p.snap == nil {
		return nil, ErrUnavailable
	}
	return p.snap, nil
}

// Fetch asks p for a snapshot but waits at most timeout. A provider that
// ignores its context is abandoned rather than waited on.
func Fetch(ctx context.Context, p Provider, timeout time.Duration) (*Snapshot, error) {
	if p == nil {
		return nil, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		snap *Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := p.Snapshot(ctx)
		done <- result{snap, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, r.err)
		}
		if r.snap == nil {
			return nil, ErrUnavailable
		}
		return r.snap, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}
