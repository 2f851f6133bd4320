package isobmff

import (
	"encoding/binary"
	"fmt"
)

// widevineSystemID is the Widevine Content Protection system ID, as
// carried in every Widevine PSSH box. Matched literally, no heuristics.
var widevineSystemID = [16]byte{
	0xed, 0xef, 0x8b, 0xa9, 0x79, 0xd6, 0x4a, 0xce,
	0xa3, 0xc8, 0x27, 0xdc, 0xd5, 0x1d, 0x21, 0xed,
}

// PSSH version-0 TLV tag numbers.
const (
	psshTagAlgorithm            = 0x08
	psshTagKeyID                = 0x12
	psshTagContentID            = 0x22
	psshTagProvider             = 0x1a
	psshTagTrackType            = 0x2a
	psshTagPolicy               = 0x32
	psshTagCryptoPeriodIndex    = 0x38
	psshTagProtectionScheme     = 0x48
	psshTagCryptoPeriodDuration = 0x50
)

// PSSHKeyIDs holds the key IDs parsed from a Widevine PSSH box, indexed
// by parse order, and the selection made by SetDefaultKeyID.
type PSSHKeyIDs struct {
	keys       [][]byte
	defaultIdx int
}

// ParsePSSH reads a Widevine PSSH box from buf: a 32-bit size, the FourCC
// "pssh", and a system-ID matching widevineSystemID, followed by a
// version-dependent key-ID payload (v0: TLV stream; v1: kidCount + raw
// 16-byte key IDs). Any other version is an error.
func ParsePSSH(buf []byte) (*PSSHKeyIDs, error) {
	if len(buf) < 32 {
		return nil, fmt.Errorf("isobmff: pssh buffer too short")
	}
	size := binary.BigEndian.Uint32(buf[0:4])
	if int(size) > len(buf) {
		return nil, fmt.Errorf("isobmff: pssh size %d exceeds buffer length %d", size, len(buf))
	}
	if string(buf[4:8]) != "pssh" {
		return nil, fmt.Errorf("isobmff: not a pssh box")
	}
	version := buf[8]
	var systemID [16]byte
	copy(systemID[:], buf[12:28])
	if systemID != widevineSystemID {
		return nil, fmt.Errorf("isobmff: pssh system ID is not Widevine")
	}

	switch version {
	case 0:
		dataSize := binary.BigEndian.Uint32(buf[28:32])
		if 32+int(dataSize) > len(buf) {
			return nil, fmt.Errorf("isobmff: pssh v0 data size exceeds buffer")
		}
		return parsePSSHV0(buf[32 : 32+int(dataSize)])
	case 1:
		if len(buf) < 32+4 {
			return nil, fmt.Errorf("isobmff: pssh v1 missing kidCount")
		}
		kidCount := binary.BigEndian.Uint32(buf[28:32])
		keys := make([][]byte, 0, kidCount)
		offset := 32
		for i := uint32(0); i < kidCount; i++ {
			if offset+16 > len(buf) {
				return nil, fmt.Errorf("isobmff: pssh v1 truncated key ID list")
			}
			kid := make([]byte, 16)
			copy(kid, buf[offset:offset+16])
			keys = append(keys, kid)
			offset += 16
		}
		return &PSSHKeyIDs{keys: keys}, nil
	default:
		return nil, fmt.Errorf("isobmff: unsupported pssh version %d", version)
	}
}

// parsePSSHV0 decodes the version-0 TLV stream, keeping only the
// KeyID-tagged entries (the other tags are well-formed but unused by
// the core adaptor — they carry provider/content-ID/policy metadata
// the DRM license request path consumes elsewhere).
func parsePSSHV0(data []byte) (*PSSHKeyIDs, error) {
	var keys [][]byte
	offset := 0
	for offset < len(data) {
		tag := data[offset]
		offset++
		length, n, err := readVarint(data[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		if offset+int(length) > len(data) {
			return nil, fmt.Errorf("isobmff: pssh v0 TLV value exceeds buffer")
		}
		value := data[offset : offset+int(length)]
		offset += int(length)

		if tag == psshTagKeyID {
			kid := make([]byte, len(value))
			copy(kid, value)
			keys = append(keys, kid)
		}
	}
	return &PSSHKeyIDs{keys: keys}, nil
}

// readVarint decodes a protobuf-style base-128 varint: 7 payload bits
// per byte, continuation signalled by the top bit.
func readVarint(data []byte) (value uint64, n int, err error) {
	for n < len(data) {
		b := data[n]
		value |= uint64(b&0x7f) << (7 * n)
		n++
		if b&0x80 == 0 {
			return value, n, nil
		}
		if n > 9 {
			return 0, 0, fmt.Errorf("isobmff: varint too long")
		}
	}
	return 0, 0, fmt.Errorf("isobmff: truncated varint")
}

// SetDefaultKeyID selects which parsed key ID GetKey returns, by byte
// value. A no-op if kid matches none of the parsed key IDs.
func (p *PSSHKeyIDs) SetDefaultKeyID(kid []byte) {
	for i, k := range p.keys {
		if bytesEqual(k, kid) {
			p.defaultIdx = i
			return
		}
	}
}

// GetKey returns the key ID at the given index. An index equal to the
// total key count falls back to index 0 rather than erroring — observed
// original-source behavior, preserved bug-compatible since downstream
// DRM session code may depend on the fallback.
func (p *PSSHKeyIDs) GetKey(index int) ([]byte, error) {
	if len(p.keys) == 0 {
		return nil, fmt.Errorf("isobmff: no key IDs parsed")
	}
	if index == len(p.keys) {
		index = 0
	}
	if index < 0 || index >= len(p.keys) {
		return nil, fmt.Errorf("isobmff: key index %d out of range", index)
	}
	return p.keys[index], nil
}

// DefaultKey returns the key ID selected by SetDefaultKeyID, or the
// first parsed key ID if none was selected.
func (p *PSSHKeyIDs) DefaultKey() ([]byte, error) {
	return p.GetKey(p.defaultIdx)
}

// Keys returns every parsed key ID, in insertion order.
func (p *PSSHKeyIDs) Keys() [][]byte {
	return p.keys
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
