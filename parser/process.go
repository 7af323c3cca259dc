package parser

import "strings"

// Process is the postfix daemon that emitted a line.
type Process int

const (
	ProcessUnknown Process = iota
	ProcessAnvil
	ProcessBounce
	ProcessCleanup
	ProcessError
	ProcessLMTP
	ProcessLocal
	ProcessMaster
	ProcessPickup
	ProcessPipe
	ProcessPostscreen
	ProcessPostsuper
	ProcessQmgr
	ProcessScache
	ProcessSMTP
	ProcessSMTPD
	ProcessTLSMgr
	ProcessVirtual

	processCount
)

var processNames = [...]string{
	ProcessUnknown:    "unknown",
	ProcessAnvil:      "anvil",
	ProcessBounce:     "bounce",
	ProcessCleanup:    "cleanup",
	ProcessError:      "error",
	ProcessLMTP:       "lmtp",
	ProcessLocal:      "local",
	ProcessMaster:     "master",
	ProcessPickup:     "pickup",
	ProcessPipe:       "pipe",
	ProcessPostscreen: "postscreen",
	ProcessPostsuper:  "postsuper",
	ProcessQmgr:       "qmgr",
	ProcessScache:     "scache",
	ProcessSMTP:       "smtp",
	ProcessSMTPD:      "smtpd",
	ProcessTLSMgr:     "tlsmgr",
	ProcessVirtual:    "virtual",
}

var processByName = func() map[string]Process {
	m := make(map[string]Process, len(processNames))
	for p := ProcessAnvil; p < processCount; p++ {
		m[processNames[p]] = p
	}
	return m
}()

func (p Process) String() string {
	if p >= 0 && p < processCount {
		return processNames[p]
	}
	return processNames[ProcessUnknown]
}

// LookupProcess maps a process keyword such as "smtpd" or "smtpd.local" to
// its Process. Only the part before the first dot is significant.
func LookupProcess(keyword string) (Process, bool) {
	if i := strings.IndexByte(keyword, '.'); i >= 0 {
		keyword = keyword[:i]
	}
	p, ok := processByName[keyword]
	return p, ok
}
