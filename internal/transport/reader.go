package transport

import "io"

// countingReader reports cumulative bytes read to onProgress.
type countingReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress func(loaded, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.loaded += int64(n)
		if c.onProgress != nil {
			c.onProgress(c.loaded, c.total)
		}
	}
	return n, err
}
