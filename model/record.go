package model

import (
	"fmt"

	"github.com/dhcgn/maillog/parser"
)

// Record is the flattened form of a decoded message used for export and
// reporting. Fields a variant does not carry are left empty.
type Record struct {
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Date    string `json:"date"`
	Host    string `json:"host"`
	Service string `json:"service"`
	Process string `json:"process"`
	PID     uint32 `json:"pid"`
	QueueID string `json:"queue_id,omitempty"`

	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	OrigTo       string `json:"orig_to,omitempty"`
	UID          *int64 `json:"uid,omitempty"`
	Size         uint64 `json:"size,omitempty"`
	Nrcpt        uint32 `json:"nrcpt,omitempty"`
	Relay        string `json:"relay,omitempty"`
	RemoteHost   string `json:"remote_host,omitempty"`
	ConnUse      string `json:"conn_use,omitempty"`
	Delay        string `json:"delay,omitempty"`
	Delays       string `json:"delays,omitempty"`
	DSN          string `json:"dsn,omitempty"`
	Status       string `json:"status,omitempty"`
	ChildQueueID string `json:"child_queue_id,omitempty"`
	MessageID    string `json:"message_id,omitempty"`
	Resent       bool   `json:"resent,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message,omitempty"`
	Proto        string `json:"proto,omitempty"`
	Helo         string `json:"helo,omitempty"`
	Explanation  string `json:"explanation,omitempty"`
	Client       string `json:"client,omitempty"`
	OrigQueueID  string `json:"orig_queue_id,omitempty"`
	OrigClient   string `json:"orig_client,omitempty"`
	SaslMethod   string `json:"sasl_method,omitempty"`
	SaslUsername string `json:"sasl_username,omitempty"`
}

// NewRecord flattens msg. The line number and source come from line.
func NewRecord(line Line, msg parser.Message) Record {
	pre := msg.Pre()
	rec := Record{
		Source:  line.Source,
		Line:    line.Number,
		Kind:    msg.Kind().String(),
		Date:    pre.Date(),
		Host:    pre.Host(),
		Service: pre.Service(),
		Process: pre.Process().String(),
		PID:     pre.PID(),
		QueueID: pre.QueueID(),
	}

	switch m := msg.(type) {
	case *parser.Pickup:
		uid := int64(m.UID())
		rec.UID = &uid
		rec.From = m.From()
	case *parser.Forward:
		rec.To = m.To()
		rec.OrigTo = m.OrigTo()
		rec.Relay = m.Relay()
		rec.ConnUse = m.ConnUse()
		rec.Delay = m.Delay()
		rec.Delays = m.Delays()
		dsn := m.DSN()
		rec.DSN = fmt.Sprintf("%d.%d.%d", dsn[0], dsn[1], dsn[2])
		rec.Status = m.Status()
		rec.ChildQueueID = m.ChildQueue()
	case *parser.ForwardError:
		rec.RemoteHost = m.RemoteHost()
		rec.Message = m.Message()
	case *parser.Qmgr:
		rec.From = m.From()
		rec.Size = m.Size()
		rec.Nrcpt = m.Nrcpt()
	case *parser.QmgrRemoved:
	case *parser.QmgrExpired:
		rec.From = m.From()
	case *parser.Cleanup:
		rec.MessageID = m.MessageID()
		rec.Resent = m.Resent()
	case *parser.Reject:
		rec.Reason = m.Reason().String()
		rec.Message = m.Message()
		rec.From = m.From()
		rec.To = m.To()
		rec.Proto = m.Proto().String()
		rec.Helo = m.Helo()
		rec.Explanation = m.Explanation()
	case *parser.Smtpd:
		rec.Client = m.Client()
	case *parser.SmtpdForward:
		rec.Client = m.Client()
		rec.OrigQueueID = m.OrigQueueID()
		rec.OrigClient = m.OrigClient()
	case *parser.SmtpdLogin:
		rec.Client = m.Client()
		rec.SaslMethod = m.SaslMethod().String()
		rec.SaslUsername = m.SaslUsername()
	case *parser.Bounce:
		rec.ChildQueueID = m.ChildQueueID()
	}
	return rec
}
