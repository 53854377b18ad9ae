package text

import (
	"fmt"
	"io"
)

// Text is an immutable piece of displayable narrative text.
type Text struct {
	body string
}

// New wraps s as a Text.
func New(s string) Text {
	return Text{body: s}
}

func (t Text) String() string {
	return t.body
}

// IsEmpty reports whether the text has no body.
func (t Text) IsEmpty() bool {
	return t.body == ""
}

// Print writes the body followed by a newline.
func (t Text) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.body)
	return err
}

// PrintWithPrefix writes "<prefix> : <body>". The prefix may be a string,
// an integer or another Text.
func (t Text) PrintWithPrefix(w io.Writer, prefix any) error {
	_, err := fmt.Fprintf(w, "%s : %s\n", formatPrefix(prefix), t.body)
	return err
}

// Prefixed returns the same line PrintWithPrefix would write, without the newline.
func (t Text) Prefixed(prefix any) string {
	return formatPrefix(prefix) + " : " + t.body
}

func formatPrefix(prefix any) string {
	switch p := prefix.(type) {
	case string:
		return p
	case Text:
		return p.body
	case int:
		return fmt.Sprintf("%d", p)
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}
