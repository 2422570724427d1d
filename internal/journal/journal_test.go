package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type memSink struct {
	got    []Entry
	err    error
	closed bool
}

func (m *memSink) Write(e Entry) error {
	m.got = append(m.got, e)
	return m.err
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

func TestMulti_WritesToEverySinkDespiteErrors(t *testing.T) {
	boom := errors.New("disk full")
	a := &memSink{err: boom}
	b := &memSink{}

	err := Multi{a, b}.Write(Entry{Kind: KindReply, Text: "Tossed 1 DIRT."})
	require.ErrorIs(t, err, boom)
	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)

	require.NoError(t, Multi{a, b}.Close())
	require.True(t, a.closed)
	require.True(t, b.closed)
}
