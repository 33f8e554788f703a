package protocol

// MaxMessageLen is the longest frame the hub firmware will buffer. A partial
// frame that grows past it can never be valid and is discarded.
const MaxMessageLen = 512

// Framer splits a continuous byte stream into frames ending with ';'.
//
// Bytes are accumulated one at a time. Every ';' closes the current frame,
// which is emitted including the terminator. An '@' always starts a new frame,
// so a truncated message such as "@bad" is dropped as soon as the next
// message begins instead of corrupting it.
//
// A Framer is owned by a single reader and is not safe for concurrent use.
type Framer struct {
	buf       []byte
	discarded int
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{buf: make([]byte, 0, 64)}
}

// Feed appends p to the internal buffer and returns every frame completed by
// it, in order. Returned slices are owned by the caller.
func (f *Framer) Feed(p []byte) [][]byte {
	var frames [][]byte

	for _, b := range p {
		switch b {
		case StartMarker:
			if len(f.buf) > 0 {
				f.discarded += len(f.buf)
				f.buf = f.buf[:0]
			}
			f.buf = append(f.buf, b)

		case EndMarker:
			f.buf = append(f.buf, b)
			frame := make([]byte, len(f.buf))
			copy(frame, f.buf)
			frames = append(frames, frame)
			f.buf = f.buf[:0]

		default:
			if len(f.buf) >= MaxMessageLen {
				f.discarded += len(f.buf)
				f.buf = f.buf[:0]
			}
			f.buf = append(f.buf, b)
		}
	}

	return frames
}

// Pending returns the number of buffered bytes not yet part of a frame.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Discarded returns how many bytes were thrown away while resynchronising.
func (f *Framer) Discarded() int {
	return f.discarded
}

// Reset drops any partially accumulated frame.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
