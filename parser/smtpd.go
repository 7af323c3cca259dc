package parser

import "strings"

// Smtpd records a client handing a message to the inbound SMTP daemon:
//
//	84ED020916: client=mx.example.net[192.0.2.7]
type Smtpd struct {
	Preamble
	client span
}

func (m *Smtpd) Client() string { return m.client.in(m.raw) }

// SmtpdForward is an Smtpd record received from a content filter that
// reinjects mail, naming the queue entry and client it originally came from.
type SmtpdForward struct {
	Smtpd
	origQueueID span
	origClient  span
}

func (m *SmtpdForward) OrigQueueID() string { return m.origQueueID.in(m.raw) }
func (m *SmtpdForward) OrigClient() string  { return m.origClient.in(m.raw) }

// SaslMethod is the SASL mechanism an authenticated client used.
type SaslMethod int

const (
	SaslLogin SaslMethod = iota
	SaslPlain
)

func (s SaslMethod) String() string {
	if s == SaslPlain {
		return "PLAIN"
	}
	return "LOGIN"
}

// SmtpdLogin is an Smtpd record for an authenticated submission.
type SmtpdLogin struct {
	Smtpd
	method   SaslMethod
	username span
}

func (m *SmtpdLogin) SaslMethod() SaslMethod { return m.method }
func (m *SmtpdLogin) SaslUsername() string   { return m.username.in(m.raw) }

func parseSmtpd(pre Preamble, cur int) (Message, error) {
	if !pre.HasQueueID() {
		return nil, nil
	}
	if reason, ok := acceptVerb(&pre, cur, ReasonDiscard, ReasonReject, ReasonWarn); ok {
		return parseReject(pre, cur, reason)
	}

	c := pre.cursorAt(cur)
	if !c.accept(" client=") {
		return nil, ErrSmtpdNoClient
	}
	client, ok := c.until(',')
	if !ok {
		return &Smtpd{Preamble: pre, client: c.tail()}, nil
	}
	smtpd := Smtpd{Preamble: pre, client: client}

	switch {
	case c.accept(", orig_queue_id="):
		m := &SmtpdForward{Smtpd: smtpd}
		if m.origQueueID, ok = c.until(','); !ok {
			return nil, ErrSmtpdNonEndingOrigQueue
		}
		if !c.accept(", orig_client=") {
			return nil, ErrSmtpdNoOrigClient
		}
		m.origClient = c.tail()
		return m, nil

	case c.accept(", sasl_method="):
		m := &SmtpdLogin{Smtpd: smtpd}
		method, ok := c.until(',')
		if !ok {
			return nil, ErrSmtpdBadSaslMethod
		}
		switch method.in(pre.raw) {
		case "LOGIN":
			m.method = SaslLogin
		case "PLAIN":
			m.method = SaslPlain
		default:
			return nil, ErrSmtpdUnknownSaslMethod
		}
		if !c.accept(", sasl_username=") {
			return nil, ErrSmtpdNoSaslUsername
		}
		if i := strings.IndexByte(c.rest(), ','); i >= 0 {
			m.username = span{c.pos, c.pos + i}
		} else {
			m.username = c.tail()
		}
		return m, nil
	}
	return nil, ErrSmtpdBadClientSuffix
}
