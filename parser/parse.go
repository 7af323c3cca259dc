// Package parser decodes postfix syslog lines into typed messages.
//
// Each line is decoded on its own in a single forward pass. The result is
// either a Message whose fields are substrings of the input, an ignored line
// (nil Message, nil error), or a ParseError naming the grammar checkpoint the
// line failed.
package parser

// grammar decodes the daemon-specific part of a line starting at cur.
type grammar func(pre Preamble, cur int) (Message, error)

var grammars = [processCount]grammar{
	ProcessUnknown:    ignoreLine,
	ProcessAnvil:      ignoreLine,
	ProcessBounce:     parseBounce,
	ProcessCleanup:    parseCleanup,
	ProcessError:      parseForward,
	ProcessLMTP:       parseForward,
	ProcessLocal:      parseForward,
	ProcessMaster:     ignoreLine,
	ProcessPickup:     parsePickup,
	ProcessPipe:       parseForward,
	ProcessPostscreen: ignoreLine,
	ProcessPostsuper:  ignoreLine,
	ProcessQmgr:       parseQmgr,
	ProcessScache:     ignoreLine,
	ProcessSMTP:       parseForward,
	ProcessSMTPD:      parseSmtpd,
	ProcessTLSMgr:     ignoreLine,
	ProcessVirtual:    parseForward,
}

func ignoreLine(Preamble, int) (Message, error) { return nil, nil }

// Parse decodes line. A nil Message with a nil error means the line is out
// of scope and should be skipped.
func Parse(line string, noise Noise) (Message, error) {
	pre, cur, ignore, err := ParsePreamble(line, noise)
	if err != nil || ignore {
		return nil, err
	}
	return grammars[pre.process](pre, cur)
}

// Parser binds a noise configuration. It holds no mutable state and may be
// shared between goroutines.
type Parser struct {
	noise Noise
}

func New(noise Noise) *Parser {
	return &Parser{noise: noise}
}

func (p *Parser) Parse(line string) (Message, error) {
	return Parse(line, p.noise)
}

// warningWithoutQueue reports lines with no queue id that are operational
// warnings, e.g. "warning: database /etc/postfix/aliases.db is older ...".
func warningWithoutQueue(pre *Preamble, cur int) bool {
	if pre.HasQueueID() {
		return false
	}
	c := pre.cursorAt(cur)
	return c.accept("warning: ")
}
