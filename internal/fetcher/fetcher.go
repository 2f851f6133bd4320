// Package fetcher defines the download contract (§6.3) the core drives
// per track, plus a helper that groups concurrent per-track fetches
// with a shared cancellation/error boundary. The concrete HTTP client
// (curl/libcurl in the original) is an external collaborator, out of
// scope per §1 — this package only carries the interface, the retry
// wrapper for init segments, and an in-memory fake for tests.
package fetcher

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// Request describes one segment download.
type Request struct {
	URL              string
	MediaType        bufferctl.MediaType
	Range            string
	ResetBuffer      bool
	PositionHint     float64
	ProfileBucket    string
	InitMaxTimeoutMs int64
}

// Result carries everything the core needs back from a download.
type Result struct {
	Buffer         []byte
	EffectiveURL   string
	HTTPCode       int
	DownloadTimeMs int64
	BitrateBps     int64
	FogError       int
}

// Fetcher is the §6.3 download contract.
type Fetcher interface {
	Download(ctx context.Context, req Request) (Result, bool)
}

// BufferedDurationFunc reports how much duration is currently buffered
// for the track being fetched, consulted by DownloadInitSegment to
// decide whether to keep retrying.
type BufferedDurationFunc func() float64

// DownloadInitSegment retries Download for an init segment while the
// total elapsed time is under req.InitMaxTimeoutMs OR bufferedDuration
// reports more than zero seconds already buffered, giving up only when
// both the retry budget and the buffer depth are exhausted (§6.3).
func DownloadInitSegment(ctx context.Context, f Fetcher, req Request, bufferedDuration BufferedDurationFunc) (Result, bool) {
	start := time.Now()
	backoff := 100 * time.Millisecond
	const maxBackoff = 2 * time.Second

	for {
		result, ok := f.Download(ctx, req)
		if ok {
			return result, true
		}

		elapsedMs := time.Since(start).Milliseconds()
		withinTimeout := req.InitMaxTimeoutMs <= 0 || elapsedMs < req.InitMaxTimeoutMs
		haveBuffer := bufferedDuration != nil && bufferedDuration() > 0
		if !withinTimeout && !haveBuffer {
			return result, false
		}

		select {
		case <-ctx.Done():
			return Result{}, false
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// Group joins the concurrent per-track fetchers (video/audio/subtitle/
// aux-audio) started for one tune, so Stop can cancel and wait on all
// of them through a single handle — grounded on the domain-stack
// assignment of golang.org/x/sync/errgroup to this exact role (per-track
// fetcher/injector goroutine group lifecycle).
type Group struct {
	g      *errgroup.Group
	cancel context.CancelFunc
}

// NewGroup derives a cancellable context from parent and returns a Group
// along with that context, to be passed to every per-track fetch
// goroutine started under it.
func NewGroup(parent context.Context) (*Group, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	return &Group{g: g, cancel: cancel}, ctx
}

// Go starts fn in the group. If fn returns an error, the group's
// context is canceled, unblocking every other track's fetch loop.
func (grp *Group) Go(fn func() error) {
	grp.g.Go(fn)
}

// Wait blocks until every started fn has returned, and returns the
// first non-nil error among them, if any.
func (grp *Group) Wait() error {
	return grp.g.Wait()
}

// Cancel stops every fetch goroutine in the group without waiting for
// an error, used on Stop().
func (grp *Group) Cancel() {
	grp.cancel()
}
