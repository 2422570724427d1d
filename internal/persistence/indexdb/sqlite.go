package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelcraft.ai/guardbot/internal/journal"
)

// SQLiteIndex is a queryable secondary copy of the command journal. Writes
// are queued and applied in batches by a single writer goroutine.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan journal.Entry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan journal.Entry, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			at TEXT NOT NULL,
			issuer TEXT NOT NULL,
			name TEXT NOT NULL,
			args_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id, id);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_issuer ON commands(issuer, id);`,
		`CREATE TABLE IF NOT EXISTS replies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			at TEXT NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_replies_session ON replies(session_id, id);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Write(e journal.Entry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		// The JSONL journal remains the source of truth.
		s.dropped.Add(1)
	}
	return nil
}

// Dropped reports how many entries were discarded because the writer fell behind.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

type Stats struct {
	Sessions int
	Commands int
	Replies  int
}

func (s *SQLiteIndex) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(DISTINCT session_id) FROM commands),
		(SELECT COUNT(*) FROM commands),
		(SELECT COUNT(*) FROM replies)`)
	if err := row.Scan(&st.Sessions, &st.Commands, &st.Replies); err != nil {
		return Stats{}, fmt.Errorf("index stats: %w", err)
	}
	return st, nil
}

// CommandsBy returns the most recent commands issued by issuer, newest first.
func (s *SQLiteIndex) CommandsBy(ctx context.Context, issuer string, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT session_id,tick,at,issuer,name,args_json
		FROM commands WHERE issuer=? ORDER BY id DESC LIMIT ?`, issuer, limit)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		var (
			e       journal.Entry
			tick    int64
			at      string
			argsRaw string
		)
		if err := rows.Scan(&e.SessionID, &tick, &at, &e.Issuer, &e.Name, &argsRaw); err != nil {
			return nil, err
		}
		e.Kind = journal.KindCommand
		e.Tick = uint64(tick)
		e.Time, _ = time.Parse(time.RFC3339Nano, at)
		if err := json.Unmarshal([]byte(argsRaw), &e.Args); err != nil {
			return nil, fmt.Errorf("decode args: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertCommand, _ := s.db.Prepare(`INSERT INTO commands(session_id,tick,at,issuer,name,args_json) VALUES(?,?,?,?,?,?)`)
	insertReply, _ := s.db.Prepare(`INSERT INTO replies(session_id,tick,at,text) VALUES(?,?,?,?)`)
	defer func() {
		if insertCommand != nil {
			_ = insertCommand.Close()
		}
		if insertReply != nil {
			_ = insertReply.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 200
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		at := e.Time.UTC().Format(time.RFC3339Nano)
		switch e.Kind {
		case journal.KindCommand:
			if insertCommand == nil {
				continue
			}
			args := e.Args
			if args == nil {
				args = []string{}
			}
			argsJSON, _ := json.Marshal(args)
			if _, err := tx.Stmt(insertCommand).Exec(e.SessionID, int64(e.Tick), at, e.Issuer, e.Name, string(argsJSON)); err != nil {
				rollback()
				continue
			}
			opCount++
		case journal.KindReply:
			if insertReply == nil {
				continue
			}
			if _, err := tx.Stmt(insertReply).Exec(e.SessionID, int64(e.Tick), at, e.Text); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
