package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Fragment is one piece of a compiler message: either PlainText or StyledText.
type Fragment interface {
	Text() string
	isFragment()
}

// PlainText is a bare string fragment.
type PlainText string

// Text returns the fragment verbatim.
func (p PlainText) Text() string { return string(p) }

func (PlainText) isFragment() {}

// StyledText is a fragment wrapped in terminal styling hints. Only String is rendered.
type StyledText struct {
	Bold      bool   `json:"bold"`
	Underline bool   `json:"underline"`
	Color     string `json:"color"`
	String    string `json:"string"`
}

// Text returns the inner text without its styling.
func (s StyledText) Text() string { return s.String }

func (StyledText) isFragment() {}

// Message is an ordered sequence of fragments.
type Message []Fragment

// Render concatenates every fragment's text.
func (m Message) Render() string {
	var b strings.Builder
	for _, f := range m {
		if f == nil {
			continue
		}
		b.WriteString(f.Text())
	}
	return b.String()
}

// UnmarshalJSON decodes a mixed array of strings and styled objects.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Message, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}
		switch item[0] {
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return fmt.Errorf("message fragment %d: %w", i, err)
			}
			out = append(out, PlainText(s))
		case '{':
			var st StyledText
			if err := json.Unmarshal(item, &st); err != nil {
				return fmt.Errorf("message fragment %d: %w", i, err)
			}
			out = append(out, st)
		default:
			return fmt.Errorf("message fragment %d: unexpected %s", i, item)
		}
	}
	*m = out
	return nil
}
