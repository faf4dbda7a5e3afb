package protocol

// FrameReader converts a monotonically growing byte buffer into a lazy
// sequence of whole packets (C2). It never discards bytes that form an
// incomplete packet; callers feed it with Feed and drain it with Next
// until Next reports there is nothing more to emit.
type FrameReader struct {
	buf []byte
}

// NewFrameReader returns an empty frame reader.
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Feed appends newly received bytes to the internal buffer.
func (f *FrameReader) Feed(b []byte) {
	f.buf = append(f.buf, b...)
}

// Next attempts to extract one complete packet from the buffer.
//
// Returns (packet, true, nil) if a packet was extracted and the buffer
// advanced past it. Returns (nil, false, nil) if there are not yet
// enough bytes buffered for a full packet — this is not an error, the
// caller should stop draining and wait for more Feed calls. Returns a
// non-nil error, which is fatal for the connection, if the buffered
// header names an unknown type or the payload cannot be reconstructed.
func (f *FrameReader) Next() (Packet, bool, error) {
	if len(f.buf) < HeaderSize {
		return nil, false, nil
	}

	header, err := DecodeHeader(f.buf)
	if err != nil {
		return nil, false, err
	}

	total := HeaderSize + int(header.PayloadLen)
	if len(f.buf) < total {
		return nil, false, nil
	}

	payload := f.buf[HeaderSize:total]
	packet, err := FromPayload(header.Type, payload)
	if err != nil {
		return nil, false, err
	}

	f.buf = f.buf[total:]
	return packet, true, nil
}

// Buffered returns the number of bytes currently buffered but not yet
// consumed into a packet.
func (f *FrameReader) Buffered() int {
	return len(f.buf)
}
