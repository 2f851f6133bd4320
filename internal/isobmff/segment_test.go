package isobmff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// box prepends a 4-byte big-endian size and 4-byte FourCC to payload.
func box(fourCC string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	putBeUint32(out[0:4], uint32(8+len(payload)))
	copy(out[4:8], fourCC)
	return append(out, payload...)
}

func mdhdV0(timescale uint32) []byte {
	payload := make([]byte, 20)
	// version=0, flags=0 already zero
	putBeUint32(payload[4:8], 0)         // creation time
	putBeUint32(payload[8:12], 0)        // modification time
	putBeUint32(payload[12:16], timescale)
	putBeUint32(payload[16:20], 0) // duration
	return box("mdhd", append(payload, 0, 0, 0, 0))
}

func tfdtV0(baseMediaDecodeTime uint32) []byte {
	payload := make([]byte, 8)
	putBeUint32(payload[4:8], baseMediaDecodeTime)
	return box("tfdt", payload)
}

// trunV0 builds a trun box with dataOffsetPresent (0x000001),
// sampleDurationPresent (0x000100), and sampleSizePresent (0x000200),
// one entry {duration, size} per sample.
func trunV0(durationsAndSizes [][2]uint32) []byte {
	flags := uint32(0x000001 | 0x000100 | 0x000200)
	payload := make([]byte, 0, 12+8*len(durationsAndSizes))
	hdr := make([]byte, 4)
	putBeUint32(hdr, flags) // version(1 byte, =0 high byte) + flags(3 bytes)
	payload = append(payload, hdr...)

	sampleCount := make([]byte, 4)
	putBeUint32(sampleCount, uint32(len(durationsAndSizes)))
	payload = append(payload, sampleCount...)

	dataOffset := make([]byte, 4)
	putBeUint32(dataOffset, 0)
	payload = append(payload, dataOffset...)

	for _, ds := range durationsAndSizes {
		entry := make([]byte, 8)
		putBeUint32(entry[0:4], ds[0])
		putBeUint32(entry[4:8], ds[1])
		payload = append(payload, entry...)
	}
	return box("trun", payload)
}

func mfhd() []byte {
	payload := make([]byte, 8) // version/flags(4) + sequence number(4)
	return box("mfhd", payload)
}

func tfhd() []byte {
	payload := make([]byte, 8) // version/flags(4) + track ID(4)
	return box("tfhd", payload)
}

// buildFragment assembles moof{mfhd, traf{tfhd, tfdt, trun}} + mdat,
// where mdat's payload is the concatenation of sampleSizes worth of
// filler bytes (value = sample index, for identifiability in tests).
func buildFragment(baseMediaDecodeTime uint32, sampleDurations, sampleSizes []uint32) []byte {
	entries := make([][2]uint32, len(sampleDurations))
	var mdatPayload []byte
	for i := range sampleDurations {
		entries[i] = [2]uint32{sampleDurations[i], sampleSizes[i]}
		mdatPayload = append(mdatPayload, makeFiller(byte(i+1), int(sampleSizes[i]))...)
	}

	traf := box("traf", concat(tfhd(), tfdtV0(baseMediaDecodeTime), trunV0(entries)))
	moof := box("moof", concat(mfhd(), traf))
	mdat := box("mdat", mdatPayload)
	return concat(moof, mdat)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func makeFiller(value byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestSegment_RestampPts(t *testing.T) {
	frag := buildFragment(1000, []uint32{100}, []uint32{10})
	originalLen := len(frag)
	s := NewSegment(frag)

	ok := s.RestampPts(250)
	require.True(t, ok)
	// A tfdt restamp never changes version/flags/size, only the
	// base-media-decode-time value, so the buffer length is unchanged.
	assert.Equal(t, originalLen, len(s.Bytes()))
}

func TestSegment_RestampPts_NoTfdtFails(t *testing.T) {
	s := NewSegment(box("moof", nil))
	ok := s.RestampPts(250)
	assert.False(t, ok)
}

func TestSegment_SetTimescale(t *testing.T) {
	moov := box("moov", box("trak", box("mdia", mdhdV0(90000))))
	s := NewSegment(moov)

	ok := s.SetTimescale(48000)
	assert.True(t, ok)
}

func TestSegment_SetTimescale_NoMdhdFails(t *testing.T) {
	s := NewSegment(box("moov", nil))
	ok := s.SetTimescale(48000)
	assert.False(t, ok)
}

func TestSegment_SetPtsAndDuration(t *testing.T) {
	frag := buildFragment(0, []uint32{100}, []uint32{10})
	s := NewSegment(frag)

	ok := s.SetPtsAndDuration(5000, 3000)
	assert.True(t, ok)
}

func TestSegment_ConvertToKeyFrame_TruncatesToFirstSample(t *testing.T) {
	frag := buildFragment(0, []uint32{100, 100}, []uint32{10, 20})
	originalLen := len(frag)
	s := NewSegment(frag)

	ok := s.ConvertToKeyFrame()
	require.True(t, ok)

	// The second sample's 20 bytes are gone from mdat, and the trun
	// entry for it is gone too, so the whole buffer is shorter.
	assert.Less(t, len(s.Bytes()), originalLen)
}

func TestSegment_ConvertToKeyFrame_NoTrunFails(t *testing.T) {
	s := NewSegment(box("mdat", []byte{1, 2, 3}))
	ok := s.ConvertToKeyFrame()
	assert.False(t, ok)
}
