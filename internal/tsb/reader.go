package tsb

import (
	"context"
	"sync/atomic"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
)

// Reader is a sequential, single-cursor reader over one track's fragment
// store — generalized from the teacher's per-client BufferClient (which
// tracked one HTTP client's read position in a byte ring buffer) down to
// one cursor per media type, since TSB playback has exactly one active
// reader per track rather than many concurrent HTTP clients.
type Reader struct {
	store        *trackStore
	mediaType    bufferctl.MediaType
	lastSequence atomic.Uint64
	waitCh       chan struct{}
}

func newReader(store *trackStore, mediaType bufferctl.MediaType) *Reader {
	return &Reader{
		store:     store,
		mediaType: mediaType,
		waitCh:    make(chan struct{}, 1),
	}
}

// MediaType returns the track this reader serves.
func (r *Reader) MediaType() bufferctl.MediaType { return r.mediaType }

// notify wakes a pending WaitNext, if any.
func (r *Reader) notify() {
	select {
	case r.waitCh <- struct{}{}:
	default:
	}
}

// Next returns the next unread fragment, if one is available, advancing
// the read cursor past it.
func (r *Reader) Next() (Fragment, bool) {
	f, ok := r.store.FragmentAfter(r.lastSequence.Load())
	if !ok {
		return Fragment{}, false
	}
	r.lastSequence.Store(f.Sequence)
	return f, true
}

// WaitNext blocks until a fragment is available or ctx is done.
func (r *Reader) WaitNext(ctx context.Context) (Fragment, error) {
	for {
		if f, ok := r.Next(); ok {
			return f, nil
		}
		select {
		case <-r.waitCh:
		case <-ctx.Done():
			return Fragment{}, ctx.Err()
		}
	}
}

// Seek repositions the read cursor to just before the given sequence,
// so the next Next() call returns that fragment. Used when a seek
// within the TSB window lands on a known fragment boundary.
func (r *Reader) Seek(sequence uint64) {
	if sequence == 0 {
		r.lastSequence.Store(0)
		return
	}
	r.lastSequence.Store(sequence - 1)
}
