package xmlembed

import (
	"io"
)

// rawReader passes bytes through to the XML decoder and keeps everything
// it has handed out, so the parser can look at the source text of a token
// once the decoder has consumed it.
type rawReader struct {
	r     io.Reader
	cache []byte
}

func newRawReader(r io.Reader) *rawReader {
	return &rawReader{
		r:     r,
		cache: make([]byte, 0, 4096),
	}
}

func (c *rawReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.cache = append(c.cache, p[:n]...)
	}
	return n, err
}

// Slice returns the source bytes in [start, end). Offsets beyond what has
// been read are clamped.
func (c *rawReader) Slice(start, end int64) []byte {
	if end > int64(len(c.cache)) {
		end = int64(len(c.cache))
	}
	if start < 0 || start > end {
		return nil
	}
	return c.cache[start:end]
}
