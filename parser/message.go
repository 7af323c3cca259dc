package parser

// Kind tags the variant of a decoded Message.
type Kind int

const (
	KindPickup Kind = iota
	KindForward
	KindForwardError
	KindQmgr
	KindQmgrRemoved
	KindQmgrExpired
	KindCleanup
	KindReject
	KindSmtpd
	KindSmtpdForward
	KindSmtpdLogin
	KindBounce

	kindCount
)

var kindNames = [...]string{
	KindPickup:       "pickup",
	KindForward:      "forward",
	KindForwardError: "forward_error",
	KindQmgr:         "qmgr",
	KindQmgrRemoved:  "qmgr_removed",
	KindQmgrExpired:  "qmgr_expired",
	KindCleanup:      "cleanup",
	KindReject:       "reject",
	KindSmtpd:        "smtpd",
	KindSmtpdForward: "smtpd_forward",
	KindSmtpdLogin:   "smtpd_login",
	KindBounce:       "bounce",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds returns every message kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Message is a decoded log line. The concrete type is one of *Pickup,
// *Forward, *ForwardError, *Qmgr, *QmgrRemoved, *QmgrExpired, *Cleanup,
// *Reject, *Smtpd, *SmtpdForward, *SmtpdLogin or *Bounce.
//
// A Message is immutable and all of its string accessors share memory with
// the raw line.
type Message interface {
	Kind() Kind
	Pre() *Preamble
	isMessage()
}

func (*Pickup) isMessage()       {}
func (*Forward) isMessage()      {}
func (*ForwardError) isMessage() {}
func (*Qmgr) isMessage()         {}
func (*QmgrRemoved) isMessage()  {}
func (*QmgrExpired) isMessage()  {}
func (*Cleanup) isMessage()      {}
func (*Reject) isMessage()       {}
func (*Smtpd) isMessage()        {}
func (*SmtpdForward) isMessage() {}
func (*SmtpdLogin) isMessage()   {}
func (*Bounce) isMessage()       {}

func (*Pickup) Kind() Kind       { return KindPickup }
func (*Forward) Kind() Kind      { return KindForward }
func (*ForwardError) Kind() Kind { return KindForwardError }
func (*Qmgr) Kind() Kind         { return KindQmgr }
func (*QmgrRemoved) Kind() Kind  { return KindQmgrRemoved }
func (*QmgrExpired) Kind() Kind  { return KindQmgrExpired }
func (*Cleanup) Kind() Kind      { return KindCleanup }
func (*Reject) Kind() Kind       { return KindReject }
func (*Smtpd) Kind() Kind        { return KindSmtpd }
func (*SmtpdForward) Kind() Kind { return KindSmtpdForward }
func (*SmtpdLogin) Kind() Kind   { return KindSmtpdLogin }
func (*Bounce) Kind() Kind       { return KindBounce }
