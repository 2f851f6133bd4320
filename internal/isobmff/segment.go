// Package isobmff implements in-place box-level mutation of
// fragmented-MP4 (CMAF) segments: truncation to a single key frame,
// PTS restamping, timescale override, and DRM PSSH parsing. Every
// mutation is a single function, returning whether the targeted box
// was found and patched — there is no higher-level sample model here,
// just direct box-tree surgery.
package isobmff

import (
	"bytes"
	"fmt"

	"github.com/abema/go-mp4"
)

// Segment wraps an in-memory CMAF fragment buffer.
type Segment struct {
	buf []byte
}

// NewSegment wraps buf for box-level mutation. buf is retained, not copied.
func NewSegment(buf []byte) *Segment {
	return &Segment{buf: buf}
}

// Bytes returns the segment's current buffer, reflecting any mutation
// or truncation applied so far.
func (s *Segment) Bytes() []byte {
	return s.buf
}

// boxMatch is one located box: its header/payload extent in s.buf and
// the decoded payload, for the handful of leaf boxes this package cares
// about (tfdt, trun, mdhd).
type boxMatch struct {
	info    mp4.BoxInfo
	payload mp4.IBox
}

// findBoxes walks the full box tree, expanding only the container
// boxes that can lead to path's target (moov/trak/mdia/moof/traf),
// and returns every box matching target along with its decoded payload.
func (s *Segment) findBoxes(target mp4.BoxType) ([]boxMatch, error) {
	r := bytes.NewReader(s.buf)
	var matches []boxMatch

	_, err := mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (interface{}, error) {
		if h.BoxInfo.Type == target {
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, err
			}
			matches = append(matches, boxMatch{info: h.BoxInfo, payload: box})
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(),
			mp4.BoxTypeMoof(), mp4.BoxTypeTraf():
			return h.Expand()
		default:
			return nil, nil
		}
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// patchInPlace re-marshals box and overwrites its bytes in s.buf at
// info's original extent. Only valid when the re-marshaled box is
// exactly the same length as the original — true for every mutation in
// this package, since none of them change a full box's version, flags,
// or variable-length entry count.
func (s *Segment) patchInPlace(info mp4.BoxInfo, box mp4.IBox) error {
	var out bytes.Buffer
	if _, err := mp4.Marshal(&out, box, info.Context); err != nil {
		return fmt.Errorf("isobmff: marshaling %s: %w", info.Type, err)
	}
	if uint64(out.Len()) != info.Size {
		return fmt.Errorf("isobmff: patched %s changed size (%d -> %d)", info.Type, info.Size, out.Len())
	}
	copy(s.buf[info.Offset:info.Offset+info.Size], out.Bytes())
	return nil
}

// ConvertToKeyFrame truncates the segment to its first sample: the
// first moof/traf/trun entry only, and the mdat payload trimmed to that
// entry's sample size. Returns false if the buffer did not parse, or no
// trun/mdat pair was found.
func (s *Segment) ConvertToKeyFrame() bool {
	truns, err := s.findBoxes(mp4.BoxTypeTrun())
	if err != nil || len(truns) == 0 {
		return false
	}
	mdats, err := s.findBoxes(mp4.BoxTypeMdat())
	if err != nil || len(mdats) == 0 {
		return false
	}
	trunMatch := truns[0]
	mdatMatch := mdats[0]

	trun, ok := trunMatch.payload.(*mp4.Trun)
	if !ok || len(trun.Entries) == 0 {
		return false
	}

	firstSampleSize, ok := firstEntrySize(trun)
	if !ok {
		return false
	}

	trun.Entries = trun.Entries[:1]
	trun.SampleCount = 1
	if err := s.patchTrunShrink(trunMatch, trun); err != nil {
		return false
	}
	// The trun splice moved every byte after it; locate mdat again.
	mdats, err = s.findBoxes(mp4.BoxTypeMdat())
	if err != nil || len(mdats) == 0 {
		return false
	}
	mdatMatch = mdats[0]

	mdatHeaderSize := mdatMatch.info.HeaderSize
	mdatPayloadStart := mdatMatch.info.Offset + mdatHeaderSize
	newMdatSize := mdatHeaderSize + uint64(firstSampleSize)
	if mdatPayloadStart+uint64(firstSampleSize) > uint64(len(s.buf)) {
		return false
	}

	truncated := make([]byte, 0, mdatMatch.info.Offset+newMdatSize)
	truncated = append(truncated, s.buf[:mdatMatch.info.Offset]...)
	truncated = append(truncated, s.buf[mdatMatch.info.Offset:mdatPayloadStart]...)
	truncated = append(truncated, s.buf[mdatPayloadStart:mdatPayloadStart+uint64(firstSampleSize)]...)
	s.buf = truncated

	if !rewriteBoxSize(s.buf, mdatMatch.info.Offset, newMdatSize) {
		return false
	}
	return true
}

// patchTrunShrink re-marshals a trun whose entry count just shrank (so
// its encoded size is smaller than the original) and rewrites the size
// fields of every ancestor box (traf, moof) by the same delta, then
// splices the shrunk trun into place.
func (s *Segment) patchTrunShrink(m boxMatch, trun *mp4.Trun) error {
	var out bytes.Buffer
	if _, err := mp4.Marshal(&out, trun, m.info.Context); err != nil {
		return err
	}
	delta := int64(m.info.Size) - int64(out.Len())
	if delta < 0 {
		return fmt.Errorf("isobmff: shrunk trun grew unexpectedly")
	}

	// Ancestor offsets must be resolved against the still-intact tree,
	// before splicing: once the trun shrinks, the moof/traf box headers
	// briefly overstate their own size until patched below, which would
	// throw off a fresh parse.
	ancestors := s.ancestorOffsets(m.info.Offset)

	newBuf := make([]byte, 0, len(s.buf)-int(delta))
	newBuf = append(newBuf, s.buf[:m.info.Offset]...)
	newBuf = append(newBuf, out.Bytes()...)
	newBuf = append(newBuf, s.buf[m.info.Offset+m.info.Size:]...)
	s.buf = newBuf

	if delta > 0 {
		for _, ancestorOffset := range ancestors {
			if !rewriteBoxSizeDelta(s.buf, ancestorOffset, -delta) {
				return fmt.Errorf("isobmff: failed to rewrite ancestor box size")
			}
		}
	}
	return nil
}

// ancestorOffsets returns the byte offsets of moof and traf boxes that
// contain the box at childOffset, outermost first.
func (s *Segment) ancestorOffsets(childOffset uint64) []uint64 {
	var offsets []uint64
	r := bytes.NewReader(s.buf)
	_, _ = mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (interface{}, error) {
		switch h.BoxInfo.Type {
		case mp4.BoxTypeMoof(), mp4.BoxTypeTraf():
			if childOffset >= h.BoxInfo.Offset && childOffset < h.BoxInfo.Offset+h.BoxInfo.Size {
				offsets = append(offsets, h.BoxInfo.Offset)
				return h.Expand()
			}
			return nil, nil
		default:
			return nil, nil
		}
	})
	return offsets
}

// firstEntrySize returns the size of trun's first sample entry. Only
// trun boxes that explicitly carry a per-sample size (SampleSizePresent)
// are supported; CMAF/LL-DASH fragments always do, since the absence of
// a top-level stsz for fragmented samples requires it.
func firstEntrySize(trun *mp4.Trun) (uint32, bool) {
	if trun.GetFlags()&mp4.TrunSampleSizePresent == 0 {
		return 0, false
	}
	if len(trun.Entries) == 0 {
		return 0, false
	}
	return trun.Entries[0].SampleSize, true
}

// rewriteBoxSize overwrites the 32-bit size field of the box at offset
// with newSize, handling the 64-bit largesize extension.
func rewriteBoxSize(buf []byte, offset, newSize uint64) bool {
	if offset+8 > uint64(len(buf)) {
		return false
	}
	size32 := beUint32(buf[offset : offset+4])
	if size32 == 1 {
		if offset+16 > uint64(len(buf)) {
			return false
		}
		putBeUint64(buf[offset+8:offset+16], newSize)
		return true
	}
	if newSize > 0xFFFFFFFF {
		return false
	}
	putBeUint32(buf[offset:offset+4], uint32(newSize))
	return true
}

// rewriteBoxSizeDelta adjusts the box at offset's existing size field by delta.
func rewriteBoxSizeDelta(buf []byte, offset uint64, delta int64) bool {
	if offset+8 > uint64(len(buf)) {
		return false
	}
	size32 := beUint32(buf[offset : offset+4])
	if size32 == 1 {
		if offset+16 > uint64(len(buf)) {
			return false
		}
		cur := beUint64(buf[offset+8 : offset+16])
		putBeUint64(buf[offset+8:offset+16], uint64(int64(cur)+delta))
		return true
	}
	putBeUint32(buf[offset:offset+4], uint32(int64(size32)+delta))
	return true
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func putBeUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
func beUint64(b []byte) uint64 {
	return uint64(beUint32(b[:4]))<<32 | uint64(beUint32(b[4:8]))
}
func putBeUint64(b []byte, v uint64) {
	putBeUint32(b[:4], uint32(v>>32))
	putBeUint32(b[4:8], uint32(v))
}

// RestampPts adds ptsOffsetTicks to every tfdt box's base media decode
// time in the buffer, regardless of version (0: uint32, 1: uint64).
// This package logs nothing itself — the caller logs before/after
// values if it needs to.
func (s *Segment) RestampPts(ptsOffsetTicks int64) bool {
	tfdts, err := s.findBoxes(mp4.BoxTypeTfdt())
	if err != nil || len(tfdts) == 0 {
		return false
	}
	for _, m := range tfdts {
		tfdt, ok := m.payload.(*mp4.Tfdt)
		if !ok {
			return false
		}
		if tfdt.GetVersion() == 0 {
			tfdt.BaseMediaDecodeTimeV0 = uint32(int64(tfdt.BaseMediaDecodeTimeV0) + ptsOffsetTicks)
		} else {
			tfdt.BaseMediaDecodeTimeV1 = uint64(int64(tfdt.BaseMediaDecodeTimeV1) + ptsOffsetTicks)
		}
		if err := s.patchInPlace(m.info, tfdt); err != nil {
			return false
		}
	}
	return true
}

// SetTimescale overwrites the timescale in every mdhd box, used to
// implement trick modes by re-scaling time.
func (s *Segment) SetTimescale(timeScale uint32) bool {
	mdhds, err := s.findBoxes(mp4.BoxTypeMdhd())
	if err != nil || len(mdhds) == 0 {
		return false
	}
	for _, m := range mdhds {
		mdhd, ok := m.payload.(*mp4.Mdhd)
		if !ok {
			return false
		}
		if mdhd.GetVersion() == 0 {
			mdhd.TimescaleV0 = timeScale
		} else {
			mdhd.TimescaleV1 = timeScale
		}
		if err := s.patchInPlace(m.info, mdhd); err != nil {
			return false
		}
	}
	return true
}

// SetPtsAndDuration rewrites the base media decode time (tfdt) and the
// first sample's duration (trun, if present) for a single-sample
// I-frame segment — the shape every trick-mode fragment takes. Only
// the first trun entry's duration is touched, matching the original
// helper's single-sample assumption.
func (s *Segment) SetPtsAndDuration(pts, duration uint64) bool {
	tfdts, err := s.findBoxes(mp4.BoxTypeTfdt())
	if err != nil || len(tfdts) == 0 {
		return false
	}
	tfdt, ok := tfdts[0].payload.(*mp4.Tfdt)
	if !ok {
		return false
	}
	if tfdt.GetVersion() == 0 {
		tfdt.BaseMediaDecodeTimeV0 = uint32(pts)
	} else {
		tfdt.BaseMediaDecodeTimeV1 = pts
	}
	if err := s.patchInPlace(tfdts[0].info, tfdt); err != nil {
		return false
	}

	truns, err := s.findBoxes(mp4.BoxTypeTrun())
	if err != nil || len(truns) == 0 {
		return true
	}
	trun, ok := truns[0].payload.(*mp4.Trun)
	if !ok || len(trun.Entries) == 0 {
		return true
	}
	if trun.GetFlags()&mp4.TrunSampleDurationPresent == 0 {
		return true
	}
	trun.Entries[0].SampleDuration = uint32(duration)
	if err := s.patchInPlace(truns[0].info, trun); err != nil {
		return false
	}
	return true
}

