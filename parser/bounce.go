package parser

const nonDelivery = " sender non-delivery notification: "

// Bounce links a message to the non-delivery notification generated for it:
//
//	7C091208A3: sender non-delivery notification: A270E20915
type Bounce struct {
	Preamble
	childQueueID span
}

// ChildQueueID returns the queue id of the notification message.
func (m *Bounce) ChildQueueID() string { return m.childQueueID.in(m.raw) }

func parseBounce(pre Preamble, cur int) (Message, error) {
	if warningWithoutQueue(&pre, cur) {
		return nil, nil
	}
	c := pre.cursorAt(cur)
	if !c.accept(nonDelivery) {
		return nil, ErrBounceNoNotification
	}
	child := c.tail()
	if !isQueueID(child.in(pre.raw)) {
		return nil, ErrBounceBadQueueID
	}
	return &Bounce{Preamble: pre, childQueueID: child}, nil
}
