package parser

import "strconv"

// Qmgr records a message entering the active queue:
//
//	77A8F1409B022: from=<a@b.c>, size=665, nrcpt=1 (queue active)
type Qmgr struct {
	Preamble
	from  span
	size  uint64
	nrcpt uint32
}

func (m *Qmgr) From() string  { return m.from.in(m.raw) }
func (m *Qmgr) Size() uint64  { return m.size }
func (m *Qmgr) Nrcpt() uint32 { return m.nrcpt }

// QmgrRemoved records a message leaving the queue for good.
type QmgrRemoved struct {
	Preamble
}

// QmgrExpired records a message returned to its sender after its maximal
// queue lifetime. From is usually empty (the null sender).
type QmgrExpired struct {
	Preamble
	from span
}

func (m *QmgrExpired) From() string { return m.from.in(m.raw) }

func parseQmgr(pre Preamble, cur int) (Message, error) {
	if warningWithoutQueue(&pre, cur) {
		return nil, nil
	}
	c := pre.cursorAt(cur)
	if c.accept(" removed") {
		return &QmgrRemoved{Preamble: pre}, nil
	}
	if !c.accept(" from=<") {
		return nil, ErrQmgrNoFrom
	}
	from, ok := c.until('>')
	if !ok {
		return nil, ErrQmgrBadFrom
	}
	if c.accept(">, status=expired, returned to sender") {
		return &QmgrExpired{Preamble: pre, from: from}, nil
	}
	if !c.accept(">, size=") {
		return nil, ErrQmgrNoSize
	}
	sizeSpan, ok := c.until(',')
	if !ok {
		return nil, ErrQmgrBadSize
	}
	size, err := strconv.ParseUint(sizeSpan.in(pre.raw), 10, 64)
	if err != nil {
		return nil, ErrQmgrSizeNotInt
	}
	if !c.accept(", nrcpt=") {
		return nil, ErrQmgrNoNrcpt
	}
	nrcptSpan, ok := c.until(' ')
	if !ok {
		return nil, ErrQmgrBadNrcpt
	}
	if !c.accept(" (queue active)") {
		return nil, ErrQmgrNotActive
	}
	nrcpt, err := strconv.ParseUint(nrcptSpan.in(pre.raw), 10, 32)
	if err != nil {
		return nil, ErrQmgrNrcptNotInt
	}
	return &Qmgr{Preamble: pre, from: from, size: size, nrcpt: uint32(nrcpt)}, nil
}
