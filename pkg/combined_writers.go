package pkg

import (
	"errors"
	"io"

	"go.uber.org/multierr"
)

var ErrNoWriters = errors.New("combined writer has no writers")

// CombinedWriter mirrors every write to all of its writers (log file and
// stdout). A failing writer does not stop the others. The write counts as
// done when at least one writer took the whole buffer, errors are combined.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: append([]io.Writer{}, writers...),
	}
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	if len(cw.writers) == 0 {
		return 0, ErrNoWriters
	}

	var err error
	written := false
	for _, w := range cw.writers {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		written = true
	}

	if !written {
		return 0, err
	}
	return len(p), err
}
