package parser

import "strings"

// RejectReason is the access-control action that produced a Reject record.
type RejectReason int

const (
	ReasonReject RejectReason = iota
	ReasonDiscard
	ReasonWarn
	ReasonMilterReject
)

func (r RejectReason) String() string {
	switch r {
	case ReasonReject:
		return "reject"
	case ReasonDiscard:
		return "discard"
	case ReasonWarn:
		return "warn"
	case ReasonMilterReject:
		return "milter-reject"
	}
	return "unknown"
}

// verbs are the literals introducing a record, including the space that
// follows the queue id colon.
var verbs = [...]string{
	ReasonReject:       " reject: ",
	ReasonDiscard:      " discard: ",
	ReasonWarn:         " warn: ",
	ReasonMilterReject: " milter-reject: ",
}

func (r RejectReason) verb() string {
	return verbs[r]
}

// Proto is the SMTP dialect the client spoke.
type Proto int

const (
	ProtoSMTP Proto = iota
	ProtoESMTP
)

func (p Proto) String() string {
	if p == ProtoESMTP {
		return "ESMTP"
	}
	return "SMTP"
}

// Reject records a message or recipient refused, discarded or flagged by
// smtpd, cleanup or a milter:
//
//	89EF32091D: discard: DATA from h[192.0.2.1]: <DATA>: text; from=<a@b> proto=SMTP helo=<gmail.com>
type Reject struct {
	Preamble
	reason      RejectReason
	message     span
	from        span
	to          span
	proto       Proto
	helo        span
	explanation span
}

func (m *Reject) Reason() RejectReason { return m.reason }
func (m *Reject) Message() string      { return m.message.in(m.raw) }
func (m *Reject) From() string         { return m.from.in(m.raw) }
func (m *Reject) To() string           { return m.to.in(m.raw) }
func (m *Reject) HasTo() bool          { return !m.to.empty() }
func (m *Reject) Proto() Proto         { return m.proto }
func (m *Reject) Helo() string         { return m.helo.in(m.raw) }

// Explanation returns the text cleanup appends after the helo field,
// e.g. "5.7.1 message content rejected".
func (m *Reject) Explanation() string { return m.explanation.in(m.raw) }

// acceptVerb reports which reason introduces the text at cur, if any.
func acceptVerb(pre *Preamble, cur int, reasons ...RejectReason) (RejectReason, bool) {
	c := pre.cursorAt(cur)
	for _, r := range reasons {
		if strings.HasPrefix(c.rest(), r.verb()) {
			return r, true
		}
	}
	return 0, false
}

func parseReject(pre Preamble, cur int, reason RejectReason) (Message, error) {
	c := pre.cursorAt(cur)
	c.accept(reason.verb())
	m := &Reject{Preamble: pre, reason: reason}

	rest := c.rest()
	semi := strings.Index(rest, "; from=<")
	if semi < 0 {
		semi = strings.IndexByte(rest, ';')
	}
	if semi < 0 {
		return nil, ErrRejectBadMessage
	}
	m.message = span{c.pos, c.pos + semi}
	c.pos += semi

	var ok bool
	if !c.accept("; from=<") {
		return nil, ErrRejectNoFrom
	}
	if m.from, ok = c.until('>'); !ok {
		return nil, ErrRejectBadFrom
	}
	if c.accept("> to=<") {
		if m.to, ok = c.until('>'); !ok {
			return nil, ErrRejectBadTo
		}
	}
	if !c.accept("> proto=") {
		return nil, ErrRejectNoProto
	}
	proto, ok := c.until(' ')
	if !ok {
		return nil, ErrRejectBadProto
	}
	switch proto.in(pre.raw) {
	case "SMTP":
		m.proto = ProtoSMTP
	case "ESMTP":
		m.proto = ProtoESMTP
	default:
		return nil, ErrRejectUnknownProto
	}
	if !c.accept(" helo=<") {
		return nil, ErrRejectNoHelo
	}
	if m.helo, ok = c.until('>'); !ok {
		return nil, ErrRejectBadHelo
	}
	c.pos++
	if c.accept(": ") {
		m.explanation = c.tail()
	}
	return m, nil
}
