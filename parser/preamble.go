package parser

import (
	"strconv"
	"strings"
)

// DateLen is the width of the syslog timestamp, e.g. "Jul 25 00:00:01".
const DateLen = 15

// Noise reports whether text names a service or process whose lines are
// skipped. Implementations must be safe for concurrent use.
type Noise interface {
	Ignores(text string) bool
}

// Preamble holds the fields every postfix log line starts with. It owns the
// raw line; every accessor returns a substring of it.
type Preamble struct {
	raw     string
	end     int
	host    span
	service span
	process Process
	pid     uint32
	queueID span
}

// Raw returns the line as given to the parser.
func (p *Preamble) Raw() string { return p.raw }

// Date returns the timestamp field verbatim.
func (p *Preamble) Date() string { return p.raw[:DateLen] }

func (p *Preamble) Host() string { return p.host.in(p.raw) }

// Service returns the syslog tag before the slash, e.g. "postfix-in".
func (p *Preamble) Service() string { return p.service.in(p.raw) }

func (p *Preamble) Process() Process { return p.process }

func (p *Preamble) PID() uint32 { return p.pid }

// QueueID returns the queue id, or "" for lines that carry none.
func (p *Preamble) QueueID() string { return p.queueID.in(p.raw) }

func (p *Preamble) HasQueueID() bool { return !p.queueID.empty() }

// Pre returns p itself. Message variants embed a Preamble, so this satisfies
// the Message interface for all of them.
func (p *Preamble) Pre() *Preamble { return p }

func (p *Preamble) cursorAt(pos int) cursor {
	return cursor{raw: p.raw, pos: pos, end: p.end}
}

// ParsePreamble decodes the fields common to every line. It returns the
// decoded preamble and the offset where the daemon-specific text starts.
// ignore is true when the line belongs to a noise service.
func ParsePreamble(line string, noise Noise) (pre Preamble, cur int, ignore bool, err error) {
	if len(line) < DateLen+2 {
		return Preamble{}, 0, false, ErrDateTooShort
	}
	end := contentEnd(line)

	hostStart := DateLen + 1
	sp := strings.IndexByte(line[hostStart:], ' ')
	if sp < 0 {
		return Preamble{}, 0, false, ErrNonEndingHost
	}
	host := span{hostStart, hostStart + sp}

	serviceStart := host.end + 1
	rest := line[serviceStart:]
	if noise != nil && noise.Ignores(rest) {
		return Preamble{}, 0, true, nil
	}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return Preamble{}, 0, false, ErrMissingProcess
	}
	seg := rest[:colon]

	slash := strings.IndexByte(seg, '/')
	if slash < 0 {
		return Preamble{}, 0, false, ErrNonEndingService
	}
	service := span{serviceStart, serviceStart + slash}

	bracket := strings.IndexByte(seg[slash+1:], '[')
	if bracket < 0 {
		return Preamble{}, 0, false, ErrNonEndingProcess
	}
	bracket += slash + 1

	keyword := seg[slash+1 : bracket]
	if i := strings.LastIndexByte(keyword, '/'); i >= 0 {
		keyword = keyword[i+1:]
	}
	if noise != nil && noise.Ignores(keyword) {
		return Preamble{}, 0, true, nil
	}
	process, ok := LookupProcess(keyword)
	if !ok {
		return Preamble{}, 0, false, ErrUnknownProcess
	}

	// seg ends with the pid's closing bracket; the colon must be followed by a space.
	if seg[len(seg)-1] != ']' || !strings.HasPrefix(rest[colon:], ": ") {
		return Preamble{}, 0, false, ErrBadProcessID
	}
	pid, perr := strconv.ParseUint(seg[bracket+1:len(seg)-1], 10, 32)
	if perr != nil {
		return Preamble{}, 0, false, ErrBadProcessID
	}

	pre = Preamble{
		raw:     line,
		end:     end,
		host:    host,
		service: service,
		process: process,
		pid:     uint32(pid),
	}

	cur = serviceStart + colon + 2
	if cur > end {
		cur = end
	}
	if qc := strings.IndexByte(line[cur:end], ':'); qc >= 0 && isQueueID(line[cur:cur+qc]) {
		pre.queueID = span{cur, cur + qc}
		cur += qc + 1
	}
	return pre, cur, false, nil
}

// contentEnd drops a trailing line terminator.
func contentEnd(line string) int {
	end := len(line)
	if end > 0 && line[end-1] == '\n' {
		end--
		if end > 0 && line[end-1] == '\r' {
			end--
		}
	}
	return end
}
