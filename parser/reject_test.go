package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	discardLine = "Aug  4 00:00:12 yuuai postfix/smtpd[3199]: 89EF32091D: discard: DATA from scm.seog.co.kr[61.36.79.99]: <DATA>: Data command Recipient list contains a blacklisted address"
	rejectLine  = "Jul 25 00:00:09 svoboda postfix/smtpd[5884]: 87E611409B022: reject: DATA from 99-46-141-195.lightspeed.sntcca.sbcglobal.net[99.46.141.195]: 421 4.7.1 <DATA>: Data command rejected: Tu (firstname.lastname) as envoye trop de mails recement. Merci de contacter le support s'il s'agit d'une erreur"
)

func TestReject_Checkpoints(t *testing.T) {
	runCheckpoints(t, []checkpoint{
		{"no semicolon", discardLine, ErrRejectBadMessage},
		{"semicolon without from", rejectLine + ";", ErrRejectNoFrom},
		{"from unterminated", discardLine + "; from=<xyz", ErrRejectBadFrom},
		{"to unterminated", rejectLine + "; from=<firstname.lastname@m4x.org> to=<firstname.lastname@m4x.org", ErrRejectBadTo},
		{"no proto", discardLine + "; from=<massnewsletter4654654xel@gmail.com>", ErrRejectNoProto},
		{"proto unterminated", rejectLine + "; from=<firstname.lastname@m4x.org> to=<firstname.lastname@m4x.org> proto=", ErrRejectBadProto},
		{"unknown proto", discardLine + "; from=<massnewsletter4654654xel@gmail.com> proto=XYZ ", ErrRejectUnknownProto},
		{"no helo", rejectLine + "; from=<firstname.lastname@m4x.org> to=<firstname.lastname@m4x.org> proto=ESMTP ", ErrRejectNoHelo},
		{"helo unterminated", discardLine + "; from=<massnewsletter4654654xel@gmail.com> proto=SMTP helo=<gmail.com", ErrRejectBadHelo},
	})
}

func TestReject_Discard(t *testing.T) {
	msg := mustParse(t, discardLine+"; from=<massnewsletter4654654xel@gmail.com> proto=SMTP helo=<gmail.com>")
	r, ok := msg.(*Reject)
	require.True(t, ok, "got %T", msg)

	assert.Equal(t, ProcessSMTPD, r.Process())
	assert.Equal(t, "89EF32091D", r.QueueID())
	assert.Equal(t, ReasonDiscard, r.Reason())
	assert.Equal(t, "DATA from scm.seog.co.kr[61.36.79.99]: <DATA>: Data command Recipient list contains a blacklisted address", r.Message())
	assert.Equal(t, "massnewsletter4654654xel@gmail.com", r.From())
	assert.False(t, r.HasTo())
	assert.Equal(t, "", r.To())
	assert.Equal(t, ProtoSMTP, r.Proto())
	assert.Equal(t, "gmail.com", r.Helo())
	assert.Equal(t, "", r.Explanation())
}

func TestReject_Reject(t *testing.T) {
	msg := mustParse(t, rejectLine+"; from=<firstname.lastname@m4x.org> to=<firstname.lastname@m4x.org> proto=ESMTP helo=<[192.168.0.10]>")
	r := msg.(*Reject)

	assert.Equal(t, ReasonReject, r.Reason())
	assert.Equal(t, "firstname.lastname@m4x.org", r.From())
	assert.True(t, r.HasTo())
	assert.Equal(t, "firstname.lastname@m4x.org", r.To())
	assert.Equal(t, ProtoESMTP, r.Proto())
	assert.Equal(t, "[192.168.0.10]", r.Helo())
}

func TestReject_Warn(t *testing.T) {
	msg := mustParse(t, "Aug  4 00:00:12 yuuai postfix/smtpd[3199]: 89EF32091D: warn: RCPT from mx[192.0.2.1]: greylisted; from=<a@b.c> to=<d@e.f> proto=ESMTP helo=<mx>")
	r := msg.(*Reject)
	assert.Equal(t, ReasonWarn, r.Reason())
	assert.Equal(t, "RCPT from mx[192.0.2.1]: greylisted", r.Message())
}

func TestRejectReason_String(t *testing.T) {
	assert.Equal(t, "reject", ReasonReject.String())
	assert.Equal(t, "discard", ReasonDiscard.String())
	assert.Equal(t, "warn", ReasonWarn.String())
	assert.Equal(t, "milter-reject", ReasonMilterReject.String())
	assert.Equal(t, "unknown", RejectReason(7).String())
	assert.Equal(t, "SMTP", ProtoSMTP.String())
	assert.Equal(t, "ESMTP", ProtoESMTP.String())
}
