package parser

// Cleanup records the Message-ID header of a message entering the queue:
//
//	A071220883: message-id=<20150803220001.5E2AA52093C@mail2.example.fr>
type Cleanup struct {
	Preamble
	messageID span
	resent    bool
}

// MessageID returns the header value without angle brackets.
func (m *Cleanup) MessageID() string { return m.messageID.in(m.raw) }

// Resent reports whether the id came from a Resent-Message-ID header.
func (m *Cleanup) Resent() bool { return m.resent }

func parseCleanup(pre Preamble, cur int) (Message, error) {
	if warningWithoutQueue(&pre, cur) {
		return nil, nil
	}
	if reason, ok := acceptVerb(&pre, cur, ReasonReject, ReasonDiscard, ReasonMilterReject); ok {
		return parseReject(pre, cur, reason)
	}
	c := pre.cursorAt(cur)
	// header_checks WARN and INFO actions on a queued message.
	if c.accept(" warning: ") || c.accept(" info: ") {
		return nil, nil
	}
	m := &Cleanup{Preamble: pre}
	switch {
	case c.accept(" message-id="):
	case c.accept(" resent-message-id="):
		m.resent = true
	default:
		return nil, ErrCleanupNoMessageID
	}
	m.messageID = trimAngles(pre.raw, c.tail())
	return m, nil
}
