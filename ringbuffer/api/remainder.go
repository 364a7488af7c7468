package api

// Remainder keeps the unread tail of a message-oriented transport's message
// when it doesn't fit into the caller's buffer
type Remainder struct {
	data []byte
}

// Len returns the number of bytes kept
func (r *Remainder) Len() int {
	return len(r.data)
}

// Take moves as many kept bytes as fit into p
func (r *Remainder) Take(p []byte) int {
	n := copy(p, r.data)
	r.data = r.data[n:]
	if len(r.data) == 0 {
		r.data = nil
	}
	return n
}

// Deliver copies msg into p and keeps what doesn't fit. The remainder must
// be empty.
func (r *Remainder) Deliver(p []byte, msg []byte) int {
	if len(r.data) != 0 {
		panic("delivering a message while a remainder is pending")
	}
	n := copy(p, msg)
	if n < len(msg) {
		r.data = append([]byte(nil), msg[n:]...)
	}
	return n
}
