package isobmff

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astits"
)

// TSElementaryStream is one demuxed elementary stream's accumulated PES
// payload, keyed by PID.
type TSElementaryStream struct {
	PID  uint16
	Data []byte
}

// DemuxMPEGTS extracts elementary-stream PES payloads from an MPEG-TS
// buffer. HLS-TS segments (as opposed to CMAF/fMP4 fragments) arrive as
// MPEG-TS packets; this demux step extracts their per-PID payload. It
// does not re-mux that payload into ISO-BMFF, so Segment's box-level
// operations do not apply to its output.
func DemuxMPEGTS(buf []byte) ([]TSElementaryStream, error) {
	dmx := astits.NewDemuxer(context.Background(), bytes.NewReader(buf))

	streams := make(map[uint16]*TSElementaryStream)
	var order []uint16

	for {
		d, err := dmx.NextData()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) {
				break
			}
			return nil, fmt.Errorf("isobmff: demuxing MPEG-TS: %w", err)
		}
		if d == nil || d.PES == nil {
			continue
		}

		es, ok := streams[d.PID]
		if !ok {
			es = &TSElementaryStream{PID: d.PID}
			streams[d.PID] = es
			order = append(order, d.PID)
		}
		es.Data = append(es.Data, d.PES.Data...)
	}

	out := make([]TSElementaryStream, 0, len(order))
	for _, pid := range order {
		out = append(out, *streams[pid])
	}
	return out, nil
}
