package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when the context ends while waiting for an
// answer.
var ErrInputCancelled = errors.New("input canceled")

// lineReader reads prompt answers from a terminal or a pipe. A read blocked
// on stdin is abandoned when the context ends so Ctrl-C is not swallowed.
type lineReader struct {
	reader *bufio.Reader
	mu     sync.Mutex
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

type lineResult struct {
	line string
	err  error
}

// ReadLine returns the next answer without surrounding whitespace. A last
// answer without a trailing newline, as in `printf y | mandant import`, is
// returned as is; io.EOF only follows once nothing is left.
func (r *lineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	resultCh := make(chan lineResult, 1)
	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		line, err := r.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		resultCh <- lineResult{line: strings.TrimSpace(line), err: err}
	}()

	// The reading goroutine outlives a cancelled call and its line is lost.
	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.line, res.err
	}
}
