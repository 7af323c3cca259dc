package stats

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dhcgn/maillog/parser"
)

func TestCollector_Apply(t *testing.T) {
	c := NewCollector()
	events := []Event{
		{Stage: StageDecode, Type: EventTypeDecoded, Kind: parser.KindQmgr},
		{Stage: StageDecode, Type: EventTypeDecoded, Kind: parser.KindQmgr},
		{Stage: StageDecode, Type: EventTypeDecoded, Kind: parser.KindForward},
		{Stage: StageDecode, Type: EventTypeIgnored},
		{Stage: StageDecode, Type: EventTypeError, Err: parser.ErrQmgrNoSize},
		{Stage: StageExport, Type: EventTypeExported},
		{Stage: StageExport, Type: EventTypeError, Err: errors.New("disk full")},
	}
	for _, evt := range events {
		c.Apply(evt)
	}

	s := c.Snapshot()
	if s.Lines != 5 {
		t.Errorf("Lines = %d, want 5", s.Lines)
	}
	if s.Decoded() != 3 || s.Count(parser.KindQmgr) != 2 || s.Count(parser.KindForward) != 1 {
		t.Errorf("decoded counts wrong: %v", s.ByKind)
	}
	if s.Ignored != 1 || s.Errors != 2 || s.Exported != 1 {
		t.Errorf("Ignored/Errors/Exported = %d/%d/%d", s.Ignored, s.Errors, s.Exported)
	}
	if s.LastError == nil || s.LastError.Error() != "disk full" {
		t.Errorf("LastError = %v", s.LastError)
	}
	if s.Count(parser.Kind(-1)) != 0 {
		t.Error("Count of invalid kind should be 0")
	}
}

func TestCollector_ReadErrorIsNotALine(t *testing.T) {
	c := NewCollector()
	errRead := errors.New("read -: disk gone")
	c.Apply(Event{Stage: StageDecode, Type: EventTypeIgnored})
	c.Apply(Event{Stage: StageRead, Type: EventTypeError, Err: errRead})

	s := c.Snapshot()
	if s.Lines != 1 {
		t.Errorf("Lines = %d, want 1", s.Lines)
	}
	if s.Errors != 1 || !errors.Is(s.LastError, errRead) {
		t.Errorf("Errors = %d, LastError = %v", s.Errors, s.LastError)
	}
}

func TestCollector_SnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.Apply(Event{Type: EventTypeDecoded, Kind: parser.KindBounce})
	s := c.Snapshot()
	c.Apply(Event{Type: EventTypeDecoded, Kind: parser.KindBounce})
	if s.Count(parser.KindBounce) != 1 {
		t.Errorf("snapshot changed after Apply: %d", s.Count(parser.KindBounce))
	}
}

func TestCollector_RunDrainsAfterCancel(t *testing.T) {
	events := make(chan Event, 3)
	events <- Event{Type: EventTypeIgnored}
	events <- Event{Type: EventTypeIgnored}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector()
	c.Run(ctx, events)
	if got := c.Snapshot().Ignored; got != 2 {
		t.Errorf("Ignored = %d, want 2 buffered events applied", got)
	}
}

func TestSummary_RowsAndAttrs(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 1500; i++ {
		c.Apply(Event{Type: EventTypeDecoded, Kind: parser.KindSmtpd})
	}
	s := c.Snapshot()

	rows := s.Rows()
	if rows[0][0] != "all" || rows[0][1] != "1,500" {
		t.Errorf("first row = %v", rows[0])
	}
	if len(rows) != 2+len(parser.Kinds()) {
		t.Errorf("got %d rows", len(rows))
	}

	attrs := s.LogAttrs()
	found := false
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "smtpd" && attrs[i+1] == 1500 {
			found = true
		}
	}
	if !found {
		t.Errorf("LogAttrs() missing smtpd counter: %v", attrs)
	}
}

func TestTop(t *testing.T) {
	m := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}
	got := Top(m, 3)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Top() returned %d pairs", len(got))
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Errorf("Top()[%d] = %s, want %s", i, got[i].Key, k)
		}
	}

	var buf bytes.Buffer
	PrettyPrintTop(&buf, map[string]int{"x": 12345}, 10)
	if !strings.Contains(buf.String(), "1. x (12,345)") {
		t.Errorf("PrettyPrintTop() = %q", buf.String())
	}
}

type fakeStream struct {
	fn func(context.Context, <-chan Event) error
}

func (f *fakeStream) SubscribeStats(name string, fn func(context.Context, <-chan Event) error) {
	f.fn = fn
}

func TestReporter(t *testing.T) {
	stream := &fakeStream{}
	r := NewReporter(stream, nil)
	if stream.fn == nil {
		t.Fatal("reporter did not subscribe")
	}

	events := make(chan Event, 2)
	events <- Event{Type: EventTypeDecoded, Kind: parser.KindPickup}
	close(events)
	if err := stream.fn(context.Background(), events); err != nil {
		t.Fatalf("consume error = %v", err)
	}
	if r.Summary().Count(parser.KindPickup) != 1 {
		t.Errorf("Summary() = %+v", r.Summary())
	}
}
