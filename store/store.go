// Modul: store.go
// Beschreibung: Run-Historie der Anwendung.
// Enthaelt Store, Run sowie Begin/Finish/List Operationen.

package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run ist ein Eintrag der Run-Historie
type Run struct {
	ID        string
	Mode      string
	OutputDir string
	StartedAt time.Time

	// FinishedAt ist Null solange der Lauf laeuft
	FinishedAt time.Time

	// Batches ist die Anzahl der abgeschlossenen Batches
	Batches int
}

// Store verwaltet die Run-Historie in einer SQLite-Datenbank
type Store struct {
	// DBPath erlaubt das Ueberschreiben des Datenbank-Pfads
	// (hauptsaechlich fuer Tests)
	DBPath string

	// dbMu schuetzt nur die Datenbank-Initialisierung
	dbMu sync.Mutex
	db   *database
}

// ensureDB initialisiert die Datenbank beim ersten Zugriff
func (s *Store) ensureDB() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := newDatabase(s.DBPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	s.db = db
	return nil
}

// Close schliesst die Datenbank
func (s *Store) Close() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// BeginRun legt einen neuen Lauf an und gibt seine ID zurueck
func (s *Store) BeginRun(mode, outputDir string) (Run, error) {
	if err := s.ensureDB(); err != nil {
		return Run{}, err
	}

	run := Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		OutputDir: outputDir,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO runs (id, mode, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Mode, run.OutputDir, run.StartedAt.Unix(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun markiert einen Lauf als beendet
func (s *Store) FinishRun(id string, batches int) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	_, err := s.db.conn.Exec(
		`UPDATE runs SET finished_at = ?, batches = ? WHERE id = ?`,
		time.Now().UTC().Unix(), batches, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Runs gibt alle Laeufe zurueck, neueste zuerst
func (s *Store) Runs() ([]Run, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	rows, err := s.db.conn.Query(
		`SELECT id, mode, output_dir, started_at, finished_at, batches FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		var finished *int64
		if err := rows.Scan(&r.ID, &r.Mode, &r.OutputDir, &started, &finished, &r.Batches); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		if finished != nil {
			r.FinishedAt = time.Unix(*finished, 0).UTC()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
