package story

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/muesli/reflow/wordwrap"
)

// Prompt is written before every choice read.
const Prompt = "> "

// Console is the line-oriented output sink and input source a story plays on.
type Console struct {
	in   *bufio.Reader
	out  io.Writer
	wrap int
}

// NewConsole wraps in and out. A positive wrap width word-wraps output.
func NewConsole(in io.Reader, out io.Writer, wrap int) *Console {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Console{in: br, out: out, wrap: wrap}
}

// Write implements io.Writer, applying the wrap width.
func (c *Console) Write(p []byte) (int, error) {
	if c.wrap > 0 {
		if _, err := c.out.Write(wordwrap.Bytes(p, c.wrap)); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return c.out.Write(p)
}

// Println writes s and a newline.
func (c *Console) Println(s string) error {
	_, err := fmt.Fprintln(c, s)
	return err
}

// ReadChoice blocks until the player enters an integer in [1, max] and
// returns it as a 0-based index. Non-integer tokens discard the rest of
// their line; out-of-range integers are ignored. Only input exhaustion
// ends the loop early.
func (c *Console) ReadChoice(max int) (int, error) {
	if max < 1 {
		return -1, fmt.Errorf("read choice: max must be positive, got %d", max)
	}

	for {
		if _, err := io.WriteString(c.out, Prompt); err != nil {
			return -1, err
		}

		token, readErr := c.readToken()
		if token == "" {
			return -1, inputErr(readErr)
		}

		n, err := strconv.Atoi(token)
		if err != nil {
			if readErr == nil {
				if err := c.DiscardLine(); err != nil {
					return -1, err
				}
				continue
			}
			return -1, inputErr(readErr)
		}

		if n >= 1 && n <= max {
			return n - 1, nil
		}
		if readErr != nil {
			return -1, inputErr(readErr)
		}
	}
}

// DiscardLine consumes input up to and including the next newline.
// Reaching the end of input is not an error.
func (c *Console) DiscardLine() error {
	_, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Pause waits for the player to press enter.
func (c *Console) Pause() error {
	return c.DiscardLine()
}

// readToken skips leading whitespace and reads one whitespace-delimited
// token. The delimiter is left unread.
func (c *Console) readToken() (string, error) {
	var token []rune
	for {
		r, _, err := c.in.ReadRune()
		if err != nil {
			return string(token), err
		}
		if unicode.IsSpace(r) {
			if len(token) == 0 {
				continue
			}
			if err := c.in.UnreadRune(); err != nil {
				return string(token), err
			}
			return string(token), nil
		}
		token = append(token, r)
	}
}

func inputErr(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return ErrInputClosed
	}
	return fmt.Errorf("%w: %v", ErrInputClosed, err)
}
