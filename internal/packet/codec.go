package packet

import "encoding/binary"

// EncodeRequest serializes p into a RequestWireSize frame:
// kind i32, itemCount i32, then the full items region.
func EncodeRequest(dst []byte, p *RequestPacket) []byte {
	p.check()
	if cap(dst) < RequestWireSize {
		dst = make([]byte, RequestWireSize)
	} else {
		dst = dst[:RequestWireSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(p.kind))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(p.count))
	copy(dst[RequestHeaderSize:], p.items[:])

	return dst
}

// DecodeRequest parses a request frame into a new unpooled packet.
// It fails on a short frame, an unknown kind, or an item count above MaxItems.
func DecodeRequest(src []byte) (*RequestPacket, bool) {
	if len(src) < RequestWireSize {
		return nil, false
	}
	kind := Kind(int32(binary.LittleEndian.Uint32(src[0:4])))
	count := int32(binary.LittleEndian.Uint32(src[4:8]))
	if !kind.Valid() || count < 0 || count > MaxItems {
		return nil, false
	}

	p := NewRequest(kind)
	p.count = int(count)
	copy(p.items[:], src[RequestHeaderSize:RequestWireSize])
	return p, true
}

// EncodeResponse serializes r into a ResponseWireSize frame.
func EncodeResponse(dst []byte, r ResponsePacket) []byte {
	if cap(dst) < ResponseWireSize {
		dst = make([]byte, ResponseWireSize)
	} else {
		dst = dst[:ResponseWireSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(r.kind))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(r.outcome))

	return dst
}

// DecodeResponse parses a response frame.
func DecodeResponse(src []byte) (ResponsePacket, bool) {
	if len(src) < ResponseWireSize {
		return ResponsePacket{}, false
	}
	return ResponsePacket{
		kind:    Kind(int32(binary.LittleEndian.Uint32(src[0:4]))),
		outcome: int32(binary.LittleEndian.Uint32(src[4:8])),
	}, true
}
