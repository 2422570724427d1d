package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"voxelcraft.ai/guardbot/internal/journal"
)

func readSegment(t *testing.T, path string) []journal.Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var out []journal.Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e journal.Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestCommandJournal_WritesCompressedLines(t *testing.T) {
	dir := t.TempDir()
	j := NewCommandJournal(dir)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := []journal.Entry{
		{Time: at, SessionID: "s1", Tick: 7, Kind: journal.KindCommand, Issuer: "alice", Name: "toss", Args: []string{"DIRT", "2"}},
		{Time: at, SessionID: "s1", Tick: 7, Kind: journal.KindReply, Text: "Tossed 2 DIRT."},
	}
	for _, e := range in {
		require.NoError(t, j.Write(e))
	}
	require.NoError(t, j.Close())

	files, err := filepath.Glob(filepath.Join(dir, "journal", "commands-*.jsonl.zst"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "journal", "commands-2026-03-01-12.jsonl.zst")}, files)
	require.Equal(t, in, readSegment(t, files[0]))
}

func TestCommandJournal_RotatesByEntryHour(t *testing.T) {
	dir := t.TempDir()
	j := NewCommandJournal(dir)

	noon := time.Date(2026, 3, 1, 12, 59, 0, 0, time.UTC)
	one := noon.Add(2 * time.Minute)
	require.NoError(t, j.Write(journal.Entry{Time: noon, Kind: journal.KindReply, Text: "a"}))
	require.NoError(t, j.Write(journal.Entry{Time: one, Kind: journal.KindReply, Text: "b"}))
	require.NoError(t, j.Close())

	// A reopened journal appends a second frame to the same hour.
	j = NewCommandJournal(dir)
	require.NoError(t, j.Write(journal.Entry{Time: one, Kind: journal.KindReply, Text: "c"}))
	require.NoError(t, j.Close())

	seg := func(hour string) []string {
		var texts []string
		for _, e := range readSegment(t, filepath.Join(dir, "journal", "commands-"+hour+".jsonl.zst")) {
			texts = append(texts, e.Text)
		}
		return texts
	}
	require.Equal(t, []string{"a"}, seg("2026-03-01-12"))
	require.Equal(t, []string{"b", "c"}, seg("2026-03-01-13"))
}

func TestCommandJournal_UntimedEntriesUseClock(t *testing.T) {
	dir := t.TempDir()
	j := NewCommandJournal(dir)
	j.now = func() time.Time { return time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC) }
	require.NoError(t, j.Write(journal.Entry{Kind: journal.KindReply, Text: "x"}))
	require.NoError(t, j.Close())

	_, err := os.Stat(filepath.Join(dir, "journal", "commands-2026-03-02-08.jsonl.zst"))
	require.NoError(t, err)
}

func TestCommandJournal_CloseWithoutWrites(t *testing.T) {
	dir := t.TempDir()
	j := NewCommandJournal(dir)
	require.NoError(t, j.Close())
	require.NoError(t, j.Write(journal.Entry{Kind: journal.KindReply, Text: "late"}))
	require.NoError(t, j.Close())

	_, err := os.Stat(filepath.Join(dir, "journal"))
	require.True(t, os.IsNotExist(err))
}
