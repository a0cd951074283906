// Package secret provides zeroizing byte buffers for PINs, shared secrets,
// and other key material that must not outlive its use.
package secret

// Bytes wraps a byte slice that must be explicitly zeroized on every exit
// path from the operation that created it, including error paths. It is
// exclusively owned by the call that creates it; it must not be shared
// across goroutines.
type Bytes struct {
	b zeroed
}

type zeroed []byte

// New copies b into a new zeroizable buffer. The caller retains ownership of
// the original b.
func New(b []byte) *Bytes {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Bytes{b: cp}
}

// NewFromLen allocates a zeroizable buffer of the given length.
func NewFromLen(n int) *Bytes {
	return &Bytes{b: make([]byte, n)}
}

// Bytes returns the underlying slice. The slice aliases the buffer's
// storage; it becomes invalid after Zero is called.
func (s *Bytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len returns the buffer length.
func (s *Bytes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Zero overwrites the buffer with zeros. Safe to call multiple times and on
// a nil receiver.
func (s *Bytes) Zero() {
	if s == nil {
		return
	}
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = s.b[:0]
}
