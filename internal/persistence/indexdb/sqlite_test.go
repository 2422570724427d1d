package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxelcraft.ai/guardbot/internal/journal"
)

func TestSQLiteIndex_StoresCommandsAndReplies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "bot.sqlite")
	s, err := OpenSQLite(path)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []journal.Entry{
		{Time: at, SessionID: "s1", Tick: 1, Kind: journal.KindCommand, Issuer: "alice", Name: "come"},
		{Time: at, SessionID: "s1", Tick: 1, Kind: journal.KindReply, Text: "Coming to @alice!"},
		{Time: at, SessionID: "s2", Tick: 9, Kind: journal.KindCommand, Issuer: "alice", Name: "toss", Args: []string{"DIRT", "2"}},
		{Time: at, SessionID: "s2", Tick: 9, Kind: journal.KindCommand, Issuer: "bob", Name: "guard"},
	}
	for _, e := range entries {
		require.NoError(t, s.Write(e))
	}
	// Close drains the queue and commits.
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Sessions: 2, Commands: 3, Replies: 1}, st)

	got, err := s.CommandsBy(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "toss", got[0].Name)
	require.Equal(t, []string{"DIRT", "2"}, got[0].Args)
	require.Equal(t, uint64(9), got[0].Tick)
	require.True(t, at.Equal(got[0].Time))
	require.Equal(t, "come", got[1].Name)
	require.Empty(t, got[1].Args)
}

func TestSQLiteIndex_WriteAfterCloseIsIgnored(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "bot.sqlite"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Write(journal.Entry{Kind: journal.KindReply, Text: "late"}))
	require.NoError(t, s.Close())
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}

func TestSQLiteIndex_CountsDroppedEntries(t *testing.T) {
	// No writer goroutine drains ch, so every entry overflows.
	s := &SQLiteIndex{ch: make(chan journal.Entry)}
	require.NoError(t, s.Write(journal.Entry{Kind: journal.KindReply, Text: "a"}))
	require.NoError(t, s.Write(journal.Entry{Kind: journal.KindReply, Text: "b"}))
	require.Equal(t, uint64(2), s.Dropped())
}
