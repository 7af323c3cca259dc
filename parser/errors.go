package parser

import "fmt"

// ParseError identifies the grammar checkpoint a line failed. Every
// checkpoint has its own value so callers can tell exactly where a line broke.
type ParseError int

const (
	_ ParseError = iota

	// Preamble.
	ErrDateTooShort
	ErrNonEndingHost
	ErrMissingProcess
	ErrNonEndingService
	ErrNonEndingProcess
	ErrUnknownProcess
	ErrBadProcessID

	// Pickup.
	ErrPickupBadUID
	ErrPickupBadFrom

	// Queue manager.
	ErrQmgrNoFrom
	ErrQmgrBadFrom
	ErrQmgrNoSize
	ErrQmgrBadSize
	ErrQmgrSizeNotInt
	ErrQmgrNoNrcpt
	ErrQmgrBadNrcpt
	ErrQmgrNotActive
	ErrQmgrNrcptNotInt

	// Delivery agents.
	ErrForwardBadHost
	ErrForwardNoMessage
	ErrForwardNoTo
	ErrForwardBadTo
	ErrForwardBadOrigTo
	ErrForwardNoRelay
	ErrForwardBadRelay
	ErrForwardBadConn
	ErrForwardNoDelay
	ErrForwardNoDelays
	ErrForwardNoDSN
	ErrForwardBadDSN
	ErrForwardDSNBadLen
	ErrForwardDSNNotInt
	ErrForwardNoStatus

	// Cleanup.
	ErrCleanupNoMessageID

	// Reject records, shared by smtpd and cleanup.
	ErrRejectBadMessage
	ErrRejectNoFrom
	ErrRejectBadFrom
	ErrRejectBadTo
	ErrRejectNoProto
	ErrRejectBadProto
	ErrRejectUnknownProto
	ErrRejectNoHelo
	ErrRejectBadHelo

	// Inbound SMTP daemon.
	ErrSmtpdNoClient
	ErrSmtpdBadClientSuffix
	ErrSmtpdNonEndingOrigQueue
	ErrSmtpdNoOrigClient
	ErrSmtpdBadSaslMethod
	ErrSmtpdUnknownSaslMethod
	ErrSmtpdNoSaslUsername

	// Bounce.
	ErrBounceNoNotification
	ErrBounceBadQueueID

	errSentinel
)

var errorLabels = [...]string{
	ErrDateTooShort:     "date too short",
	ErrNonEndingHost:    "host has no terminator",
	ErrMissingProcess:   "missing process",
	ErrNonEndingService: "service tag has no terminator",
	ErrNonEndingProcess: "process keyword has no terminator",
	ErrUnknownProcess:   "unknown process kind",
	ErrBadProcessID:     "bad process id",

	ErrPickupBadUID:  "pickup: uid is missing or not an integer",
	ErrPickupBadFrom: "pickup: from field missing",

	ErrQmgrNoFrom:      "qmgr: from field missing",
	ErrQmgrBadFrom:     "qmgr: from address has no closing bracket",
	ErrQmgrNoSize:      "qmgr: size field missing",
	ErrQmgrBadSize:     "qmgr: size field has no terminating comma",
	ErrQmgrSizeNotInt:  "qmgr: size is not a base-10 integer",
	ErrQmgrNoNrcpt:     "qmgr: nrcpt field missing",
	ErrQmgrBadNrcpt:    "qmgr: nrcpt field has no terminator",
	ErrQmgrNotActive:   "qmgr: queue active marker missing",
	ErrQmgrNrcptNotInt: "qmgr: nrcpt is not a base-10 integer",

	ErrForwardBadHost:   "delivery: host field has no terminator",
	ErrForwardNoMessage: "delivery: host reply missing",
	ErrForwardNoTo:      "delivery: to field missing",
	ErrForwardBadTo:     "delivery: to address has no closing bracket",
	ErrForwardBadOrigTo: "delivery: orig_to address has no closing bracket",
	ErrForwardNoRelay:   "delivery: relay field missing",
	ErrForwardBadRelay:  "delivery: relay field has no terminating comma",
	ErrForwardBadConn:   "delivery: conn_use field has no terminating comma",
	ErrForwardNoDelay:   "delivery: delay field missing",
	ErrForwardNoDelays:  "delivery: delays field missing",
	ErrForwardNoDSN:     "delivery: dsn field missing",
	ErrForwardBadDSN:    "delivery: dsn field has no terminating comma",
	ErrForwardDSNBadLen: "delivery: dsn does not have three components",
	ErrForwardDSNNotInt: "delivery: dsn component is not an 8-bit integer",
	ErrForwardNoStatus:  "delivery: status field missing",

	ErrCleanupNoMessageID: "cleanup: message-id field missing",

	ErrRejectBadMessage:   "reject: message has no terminating semicolon",
	ErrRejectNoFrom:       "reject: from field missing",
	ErrRejectBadFrom:      "reject: from address has no closing bracket",
	ErrRejectBadTo:        "reject: to address has no closing bracket",
	ErrRejectNoProto:      "reject: proto field missing",
	ErrRejectBadProto:     "reject: proto field has no terminator",
	ErrRejectUnknownProto: "reject: unknown protocol",
	ErrRejectNoHelo:       "reject: helo field missing",
	ErrRejectBadHelo:      "reject: helo has no closing bracket",

	ErrSmtpdNoClient:           "smtpd: client field missing",
	ErrSmtpdBadClientSuffix:    "smtpd: unexpected attribute after client",
	ErrSmtpdNonEndingOrigQueue: "smtpd: orig_queue_id has no terminating comma",
	ErrSmtpdNoOrigClient:       "smtpd: orig_client field missing",
	ErrSmtpdBadSaslMethod:      "smtpd: sasl_method has no terminating comma",
	ErrSmtpdUnknownSaslMethod:  "smtpd: unknown sasl method",
	ErrSmtpdNoSaslUsername:     "smtpd: sasl_username field missing",

	ErrBounceNoNotification: "bounce: non-delivery notification marker missing",
	ErrBounceBadQueueID:     "bounce: child queue id is not uppercase hex",
}

func (e ParseError) Error() string {
	if e > 0 && e < errSentinel {
		return errorLabels[e]
	}
	return fmt.Sprintf("parse error %d", int(e))
}

// ParseErrors lists every checkpoint error in declaration order.
func ParseErrors() []ParseError {
	out := make([]ParseError, 0, int(errSentinel)-1)
	for e := ParseError(1); e < errSentinel; e++ {
		out = append(out, e)
	}
	return out
}
