package service

import (
	"io"
)

// MaxBodyBytes is the default ceiling for a request body read (16 MiB).
const MaxBodyBytes int64 = 1 << 24

// ReadBody reads at most limit bytes from r. Bytes beyond the ceiling are left
// unread; the caller sees a truncated body, not an error. A non-positive limit
// falls back to MaxBodyBytes.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = MaxBodyBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, FailedToReadBody(err)
	}
	return data, nil
}
