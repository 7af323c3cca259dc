package parser

import "strings"

// span is a half-open byte range into the raw line. The zero span marks an
// absent field.
type span struct {
	start, end int
}

func (s span) in(raw string) string {
	return raw[s.start:s.end]
}

func (s span) empty() bool {
	return s.start == 0 && s.end == 0
}

// cursor walks forward over a line. It never moves backwards.
type cursor struct {
	raw string
	pos int
	end int
}

func (c cursor) rest() string {
	return c.raw[c.pos:c.end]
}

// accept consumes lit when the remaining text starts with it.
func (c *cursor) accept(lit string) bool {
	if !strings.HasPrefix(c.rest(), lit) {
		return false
	}
	c.pos += len(lit)
	return true
}

// until returns the span up to the next b and leaves the cursor on b.
func (c *cursor) until(b byte) (span, bool) {
	i := strings.IndexByte(c.rest(), b)
	if i < 0 {
		return span{}, false
	}
	s := span{c.pos, c.pos + i}
	c.pos += i
	return s, true
}

// tail consumes everything left.
func (c *cursor) tail() span {
	s := span{c.pos, c.end}
	c.pos = c.end
	return s
}

func isQueueID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if (b < '0' || b > '9') && (b < 'A' || b > 'F') {
			return false
		}
	}
	return true
}

// trimAngles narrows s to exclude a leading '<' and a trailing '>'.
func trimAngles(raw string, s span) span {
	if s.end > s.start && raw[s.end-1] == '>' {
		s.end--
	}
	if s.end > s.start && raw[s.start] == '<' {
		s.start++
	}
	return s
}
