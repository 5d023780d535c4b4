package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"homesite_sync/models"
)

// SQLiteStore is the local run journal: step runs, their log lines and the
// command queue the daemon polls.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		run_uuid TEXT,
		step TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		processed INTEGER DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		errors INTEGER DEFAULT 0,
		message TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		step TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_step ON scrape_runs(step, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (run_uuid, step, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.RunUUID, run.Step, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, processed = ?,
			succeeded = ?, skipped = ?, errors = ?, message = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.Processed, run.Succeeded,
		run.Skipped, run.Errors, run.Message, run.ID)
	return err
}

func (s *SQLiteStore) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, run_uuid, step, started_at, finished_at, status,
			processed, succeeded, skipped, errors, message
		FROM scrape_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var r models.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.RunUUID, &r.Step, &r.StartedAt, &finished, &r.Status,
			&r.Processed, &r.Succeeded, &r.Skipped, &r.Errors, &r.Message); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, step string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, step)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, step)
	return err
}

func (s *SQLiteStore) RunLogs(runID int64) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, step
		FROM scrape_logs WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.Step); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params models.CommandParams) (int64, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return 0, err
	}
	result, err := s.db.Exec(`
		INSERT INTO commands (command, params, created_at) VALUES (?, ?, ?)`,
		cmd, string(data), time.Now())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, params, created_at, processed_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt, &cmd.ProcessedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	if cmd.Params == nil || string(cmd.Params) == "null" {
		return &models.CommandParams{}, nil
	}
	var params models.CommandParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return nil, fmt.Errorf("parse params for command %d: %w", cmd.ID, err)
	}
	return &params, nil
}
