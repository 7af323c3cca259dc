package parser

import "strconv"

// Pickup records a message submitted through the local maildrop:
//
//	12C172090B: uid=106 from=<root@example.com>
type Pickup struct {
	Preamble
	uid  uint32
	from span
}

func (m *Pickup) UID() uint32 { return m.uid }

// From returns the sender with any angle brackets removed.
func (m *Pickup) From() string { return m.from.in(m.raw) }

func parsePickup(pre Preamble, cur int) (Message, error) {
	if warningWithoutQueue(&pre, cur) {
		return nil, nil
	}
	c := pre.cursorAt(cur)
	if !c.accept(" uid=") {
		return nil, ErrPickupBadUID
	}
	uidSpan, ok := c.until(' ')
	if !ok {
		return nil, ErrPickupBadUID
	}
	uid, err := strconv.ParseUint(uidSpan.in(pre.raw), 10, 32)
	if err != nil {
		return nil, ErrPickupBadUID
	}
	c.pos++
	if !c.accept("from=") {
		return nil, ErrPickupBadFrom
	}
	from := trimAngles(pre.raw, c.tail())
	return &Pickup{Preamble: pre, uid: uint32(uid), from: from}, nil
}
