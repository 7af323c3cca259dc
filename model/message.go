package model

import "github.com/dhcgn/maillog/parser"

// Line is a single syslog line read from an input source.
type Line struct {
	Source string
	Number int
	Text   string
}

// Envelope pairs a decoded message with the line it came from. Message
// borrows from Line.Text.
type Envelope struct {
	Line    Line
	Message parser.Message
}

// Record flattens the envelope.
func (e Envelope) Record() Record {
	return NewRecord(e.Line, e.Message)
}
