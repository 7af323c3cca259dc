package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/maillog/model"
	"github.com/dhcgn/maillog/parser"
	"github.com/dhcgn/maillog/stats"
)

const qmgrLine = "Jul 25 00:00:01 svoboda postfix/qmgr[32099]: 77A8F1409B022: from=<validation@polytechnique.org>, size=665, nrcpt=1 (queue active)"

func qmgrRecord(t testing.TB, n int) model.Record {
	t.Helper()
	msg, err := parser.Parse(qmgrLine, nil)
	if err != nil || msg == nil {
		t.Fatalf("Parse() = %v, %v", msg, err)
	}
	return model.NewRecord(model.Line{Source: "maillog", Number: n, Text: qmgrLine}, msg)
}

func TestWriterRoundTrip(t *testing.T) {
	for _, name := range []string{"records.jsonl", "records.jsonl.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			w, err := NewWriter(path)
			require.NoError(t, err)

			for i := 1; i <= 3; i++ {
				require.NoError(t, w.Write(qmgrRecord(t, i)))
			}
			require.NoError(t, w.Flush())
			assert.Equal(t, 3, w.Written())
			require.NoError(t, w.Close())
			require.NoError(t, w.Close(), "second Close is a no-op")

			var got []model.Record
			require.NoError(t, Load(path, func(r model.Record) error {
				got = append(got, r)
				return nil
			}))
			require.Len(t, got, 3)
			assert.Equal(t, 3, got[2].Line)
			assert.Equal(t, "qmgr", got[0].Kind)
			assert.Equal(t, "77A8F1409B022", got[0].QueueID)
			assert.Equal(t, "validation@polytechnique.org", got[0].From)
			assert.Equal(t, uint64(665), got[0].Size)
		})
	}
}

func TestWriterCompresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.gz")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(qmgrRecord(t, 1)))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, data[:2])
}

func TestNewWriter_EmptyPath(t *testing.T) {
	_, err := NewWriter("  ")
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestLoad_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"line\":1}\n\nnot json\n"), 0o600))

	n := 0
	err := Load(path, func(model.Record) error {
		n++
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, 1, n)
}

type fakeSource struct {
	records chan model.Envelope
	stage   func(context.Context) error
	events  []stats.Event
}

func (f *fakeSource) AttachExporter(name string, fn func(context.Context) error) {
	f.stage = fn
}

func (f *fakeSource) Records() <-chan model.Envelope { return f.records }

func (f *fakeSource) EmitEvent(evt stats.Event) { f.events = append(f.events, evt) }

func TestExporter(t *testing.T) {
	msg, err := parser.Parse(qmgrLine, nil)
	require.NoError(t, err)

	src := &fakeSource{records: make(chan model.Envelope, 2)}
	path := filepath.Join(t.TempDir(), "records.jsonl")
	_, err = NewExporter(path, src, nil)
	require.NoError(t, err)
	require.NotNil(t, src.stage)

	src.records <- model.Envelope{Line: model.Line{Number: 5, Text: qmgrLine}, Message: msg}
	close(src.records)
	require.NoError(t, src.stage(context.Background()))

	require.Len(t, src.events, 1)
	assert.Equal(t, stats.EventTypeExported, src.events[0].Type)
	assert.Equal(t, 5, src.events[0].Line)

	var lines []int
	require.NoError(t, Load(path, func(r model.Record) error {
		lines = append(lines, r.Line)
		return nil
	}))
	assert.Equal(t, []int{5}, lines)
}

func TestExporter_Canceled(t *testing.T) {
	src := &fakeSource{records: make(chan model.Envelope)}
	_, err := NewExporter(filepath.Join(t.TempDir(), "records.jsonl"), src, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(src.stage(ctx), context.Canceled))
}
