package parser

import (
	"strconv"
	"strings"
)

// Forward records a delivery attempt by smtp, lmtp, local, virtual, pipe or
// error:
//
//	0345620AE4: to=<x@y>, relay=1.2.3.4[1.2.3.4]:10024, delay=0.57,
//	delays=0.4/0/0.04/0.13, dsn=2.0.0, status=sent (250 2.0.0 Ok: queued as 60F6120AF9)
type Forward struct {
	Preamble
	to         span
	origTo     span
	relay      span
	connUse    span
	delay      span
	delays     span
	dsn        [3]uint8
	status     span
	childQueue span
}

func (m *Forward) To() string { return m.to.in(m.raw) }

// OrigTo returns the recipient before alias expansion, or "" if not logged.
func (m *Forward) OrigTo() string  { return m.origTo.in(m.raw) }
func (m *Forward) HasOrigTo() bool { return !m.origTo.empty() }

// Relay returns the bracketed address of the next hop when present, and the
// whole relay token otherwise ("local", "none", a transport name).
func (m *Forward) Relay() string { return m.relay.in(m.raw) }

func (m *Forward) ConnUse() string { return m.connUse.in(m.raw) }
func (m *Forward) Delay() string   { return m.delay.in(m.raw) }
func (m *Forward) Delays() string  { return m.delays.in(m.raw) }
func (m *Forward) DSN() [3]uint8   { return m.dsn }

// Status returns the free text after "status=", e.g. "sent (250 ok)".
func (m *Forward) Status() string { return m.status.in(m.raw) }

// ChildQueue returns the queue id the next hop assigned, when the status
// reports one.
func (m *Forward) ChildQueue() string  { return m.childQueue.in(m.raw) }
func (m *Forward) HasChildQueue() bool { return !m.childQueue.empty() }

// ForwardError records a remote host refusing a message:
//
//	C217620B0B: host mx.example.com[192.0.2.1] said: 421 4.7.0 try later
type ForwardError struct {
	Preamble
	host    span
	message span
}

// RemoteHost returns the refusing host as logged, e.g. "mx.example.com[192.0.2.1]".
func (m *ForwardError) RemoteHost() string { return m.host.in(m.raw) }
func (m *ForwardError) Message() string    { return m.message.in(m.raw) }

const queuedAs = "queued as "

func parseForward(pre Preamble, cur int) (Message, error) {
	if !pre.HasQueueID() {
		return nil, nil
	}
	c := pre.cursorAt(cur)
	if c.accept(" host ") {
		return parseForwardError(pre, c)
	}

	m := &Forward{Preamble: pre}
	var ok bool

	if !c.accept(" to=<") {
		return nil, ErrForwardNoTo
	}
	if m.to, ok = c.until('>'); !ok {
		return nil, ErrForwardBadTo
	}
	c.pos++

	if c.accept(", orig_to=<") {
		if m.origTo, ok = c.until('>'); !ok {
			return nil, ErrForwardBadOrigTo
		}
		c.pos++
	}

	if !c.accept(", relay=") {
		return nil, ErrForwardNoRelay
	}
	relay, ok := c.until(',')
	if !ok {
		return nil, ErrForwardBadRelay
	}
	m.relay = relayAddress(pre.raw, relay)

	if c.accept(", conn_use=") {
		if m.connUse, ok = c.until(','); !ok {
			return nil, ErrForwardBadConn
		}
	}
	// An unterminated delay or delays leaves the following field missing.
	if !c.accept(", delay=") {
		return nil, ErrForwardNoDelay
	}
	if m.delay, ok = c.until(','); !ok {
		return nil, ErrForwardNoDelays
	}
	if !c.accept(", delays=") {
		return nil, ErrForwardNoDelays
	}
	if m.delays, ok = c.until(','); !ok {
		return nil, ErrForwardNoDSN
	}

	if !c.accept(", dsn=") {
		return nil, ErrForwardNoDSN
	}
	dsnSpan, ok := c.until(',')
	if !ok {
		return nil, ErrForwardBadDSN
	}
	dsn, err := parseDSN(dsnSpan.in(pre.raw))
	if err != nil {
		return nil, err
	}
	m.dsn = dsn

	if !c.accept(", status=") {
		return nil, ErrForwardNoStatus
	}
	m.status = c.tail()
	m.childQueue = childQueueID(pre.raw, m.status)
	return m, nil
}

func parseForwardError(pre Preamble, c cursor) (Message, error) {
	host, ok := c.until(' ')
	if !ok {
		return nil, ErrForwardBadHost
	}
	if !c.accept(" said: ") {
		return nil, ErrForwardNoMessage
	}
	return &ForwardError{Preamble: pre, host: host, message: c.tail()}, nil
}

// parseDSN decodes "x.y.z" into three 8-bit components.
func parseDSN(text string) ([3]uint8, error) {
	var dsn [3]uint8
	if strings.Count(text, ".") != 2 {
		return dsn, ErrForwardDSNBadLen
	}
	for i := range dsn {
		part := text
		if dot := strings.IndexByte(text, '.'); dot >= 0 {
			part, text = text[:dot], text[dot+1:]
		}
		v, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return dsn, ErrForwardDSNNotInt
		}
		dsn[i] = uint8(v)
	}
	return dsn, nil
}

func relayAddress(raw string, relay span) span {
	text := relay.in(raw)
	open := strings.IndexByte(text, '[')
	if open < 0 {
		return relay
	}
	closing := strings.IndexByte(text[open:], ']')
	if closing < 0 {
		return relay
	}
	return span{relay.start + open + 1, relay.start + open + closing}
}

// childQueueID extracts the id from statuses such as
// "sent (250 2.0.0 Ok: queued as 60F6120AF9)".
func childQueueID(raw string, status span) span {
	text := status.in(raw)
	if !strings.HasPrefix(text, "sent (") || !strings.HasSuffix(text, ")") {
		return span{}
	}
	i := strings.LastIndex(text, queuedAs)
	if i < 0 {
		return span{}
	}
	child := span{status.start + i + len(queuedAs), status.end - 1}
	if child.end < child.start || !isQueueID(child.in(raw)) {
		return span{}
	}
	return child
}
