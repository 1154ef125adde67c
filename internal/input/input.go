// Package input contains identifiers used in getting REPL command input for
// the phgen interactive session from CLI or other sources of input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DirectLineReader reads lines from any generic input stream directly. It
// can be used generically with any io.Reader but does not sanitize the
// input of control and escape sequences.
//
// DirectLineReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectLineReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveLineReader reads lines from stdin using a Go implementation of
// the GNU Readline library. This keeps input clear of typing and editing
// escape sequences and enables the use of command history. This should in
// general only be used when directly connecting to a TTY for input.
//
// InteractiveLineReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveLineReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a new DirectLineReader and initializes a buffered
// reader on the provided reader. The returned LineReader must have Close
// called on it before disposal.
func NewDirectReader(r io.Reader) *DirectLineReader {
	return &DirectLineReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveLineReader and initializes
// readline with the given prompt. The returned InteractiveLineReader must
// have Close called on it before disposal to properly tear down readline
// resources.
func NewInteractiveReader(prompt string) (*InteractiveLineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveLineReader{
		rl:     rl,
		prompt: prompt,
	}, nil
}

// Close cleans up resources associated with the DirectLineReader. For now it
// doesn't really do anything as DirectLineReader does not create resources,
// but callers should treat it as though it must have Close called on it.
func (dcr *DirectLineReader) Close() error {
	return nil
}

// Close cleans up readline resources associated with the
// InteractiveLineReader.
func (icr *InteractiveLineReader) Close() error {
	return icr.rl.Close()
}

// ReadLine reads the next line from the underlying reader. The returned
// string will only be empty if there is an error reading input, otherwise
// this function blocks until a line containing non-space characters is
// read (unless AllowBlank was called with true).
//
// If at end of input, the returned string will be empty and error will be
// io.EOF. If any other error occurs, the returned string will be empty and
// error will be that error.
func (dcr *DirectLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dcr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && dcr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// ReadLine reads the next line from stdin via readline. The returned string
// will only be empty if there is an error, otherwise this function blocks
// until a line consisting of more than empty or whitespace-only input is
// read (unless AllowBlank was called with true).
func (icr *InteractiveLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = icr.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && icr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// AllowBlank sets whether blank input is allowed. By default it is not.
func (dcr *DirectLineReader) AllowBlank(allow bool) {
	dcr.blanksAllowed = allow
}

// AllowBlank sets whether blank input is allowed. By default it is not.
func (icr *InteractiveLineReader) AllowBlank(allow bool) {
	icr.blanksAllowed = allow
}

// SetPrompt updates the prompt to the given text.
func (icr *InteractiveLineReader) SetPrompt(p string) {
	icr.prompt = p
	icr.rl.SetPrompt(p)
}

// GetPrompt gets the current prompt.
func (icr *InteractiveLineReader) GetPrompt() string {
	return icr.prompt
}
