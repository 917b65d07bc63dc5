package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Event is one dataset or artifact operation.
type Event struct {
	ID        string    `json:"id"`
	Component string    `json:"component"` // dataset, artifact
	Op        string    `json:"op"`        // load, save
	Kind      string    `json:"kind"`      // raw, train, val, test, model, scaler
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	Err       string    `json:"err,omitempty"`
	At        time.Time `json:"at"`
}

type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

// Recorder is what the dataset accessor and artifact store write to.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	query := `
    CREATE TABLE IF NOT EXISTS io_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        event_id TEXT NOT NULL UNIQUE,
        component VARCHAR(20) NOT NULL,
        op VARCHAR(20) NOT NULL,
        kind VARCHAR(20),
        path TEXT NOT NULL,
        bytes INTEGER DEFAULT 0,
        err TEXT,
        at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_io_events_path ON io_events(path);
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        model_name VARCHAR(50),
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    `
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Record(ctx context.Context, e Event) error {
	if j == nil || j.db == nil {
		return errors.New("journal not initialized")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO io_events (event_id, component, op, kind, path, bytes, err, at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Component, e.Op, e.Kind, e.Path, e.Bytes, e.Err, e.At.UTC())
	return err
}

// Events returns the most recent events first. limit <= 0 returns all.
func (j *Journal) Events(ctx context.Context, limit int) ([]Event, error) {
	if j == nil || j.db == nil {
		return nil, errors.New("journal not initialized")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
        SELECT event_id, component, op, kind, path, bytes, err, at
        FROM io_events
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		var kind, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.Component, &e.Op, &kind, &e.Path, &e.Bytes, &errText, &e.At); err != nil {
			return nil, err
		}
		e.Kind = kind.String
		e.Err = errText.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func (j *Journal) RecordTraining(ctx context.Context, log TrainingLog) error {
	if j == nil || j.db == nil {
		return errors.New("journal not initialized")
	}
	if log.TrainedAt.IsZero() {
		log.TrainedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO training_log (model_name, accuracy, precision, recall, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?)`,
		log.ModelName, log.Accuracy, log.Precision, log.Recall, log.TrainedAt.UTC(), log.DataPoints)
	return err
}

func (j *Journal) TrainingLog(ctx context.Context) ([]TrainingLog, error) {
	if j == nil || j.db == nil {
		return nil, errors.New("journal not initialized")
	}
	rows, err := j.db.QueryContext(ctx, `
        SELECT model_name, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.ModelName, &log.Accuracy, &log.Precision, &log.Recall, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
