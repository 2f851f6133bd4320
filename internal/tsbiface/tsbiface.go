// Package tsbiface defines the consumer-facing view of the Local TSB
// Session Manager contract (§6.6) used outside internal/tsb itself —
// e.g. by cmd/aampcore's inspect-tsb subcommand, which needs to read
// store depth and drive the fragment-push loop without depending on
// internal/tsb's concrete Reader type. internal/tune depends on the
// narrower TSBManager interface declared in its own package instead
// (it only needs Init/Flush/GetTotalStoreDuration); this interface is
// the broader one for callers that also need PushNextTsbFragment and
// the ad reservation/placement lifecycle.
package tsbiface

import (
	"context"

	"github.com/jmylchreest/aampcore/internal/bufferctl"
	"github.com/jmylchreest/aampcore/internal/tsb"
)

// Manager is the broad TSB Session Manager contract (§6.6), minus
// GetTsbReader (which returns internal/tsb's concrete *Reader type and
// so is consumed directly where that concrete type is already in
// scope, rather than abstracted here).
type Manager interface {
	Init() error
	Flush()
	GetTotalStoreDuration(mediaType bufferctl.MediaType) float64
	Write(mediaType bufferctl.MediaType, data []byte, position, duration float64, discontinuity bool, periodID string) error
	PushNextTsbFragment(ctx context.Context, mediaType bufferctl.MediaType, freeSlots uint32) (tsb.Fragment, bool)
	StartAdReservation(adBreakID string, periodPosition uint64, absPosition float64) bool
	EndAdReservation(adBreakID string, periodPosition uint64, absPosition float64) bool
	StartAdPlacement(adID string, relativePosition uint32, absPosition, duration float64, offset uint32) bool
	EndAdPlacement(adID string, relativePosition uint32, absPosition, duration float64, offset uint32) bool
	EndAdPlacementWithError(adID string, relativePosition uint32, absPosition, duration float64, offset uint32) bool
	ShiftFutureAdEvents()
}

var _ Manager = (*tsb.Manager)(nil)
