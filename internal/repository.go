package internal

import (
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tavsec/gin-healthcheck/checks"

	"github.com/rm-hull/heat-metadata-collector/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed sql/insert_snapshot.sql
var insertSnapshotSQL string

//go:embed sql/latest_checksum.sql
var latestChecksumSQL string

//go:embed sql/history.sql
var historySQL string

// SnapshotRepository keeps the merged output of each collector so that
// changes between runs can be detected and served.
type SnapshotRepository interface {
	Store(collector string, entries []models.Entry) (bool, error)
	Latest(collector string) (*models.Snapshot, error)
	History(collector string, limit int) ([]models.Snapshot, error)
	Check() checks.Check
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &sqliteRepository{
		db: db,
	}
}

// Store saves entries unless they are identical to the latest stored snapshot
// for the collector. It reports whether a new snapshot was written.
func (repo *sqliteRepository) Store(collector string, entries []models.Entry) (bool, error) {
	// map keys are sorted when marshalling, so equal documents hash equally
	payload, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("failed to marshal entries: %w", err)
	}
	sum := sha256.Sum256(payload)
	checksum := hex.EncodeToString(sum[:])

	var previous string
	err = repo.db.QueryRow(latestChecksumSQL, collector).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to query latest checksum: %w", err)
	}
	if previous == checksum {
		return false, nil
	}

	if _, err := repo.db.Exec(insertSnapshotSQL, collector, checksum, string(payload), time.Now().UTC()); err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return true, nil
}

// Latest returns the newest snapshot for the collector, or nil if there is none.
func (repo *sqliteRepository) Latest(collector string) (*models.Snapshot, error) {
	results, err := repo.History(collector, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (repo *sqliteRepository) History(collector string, limit int) ([]models.Snapshot, error) {

	rows, err := repo.db.Query(historySQL, collector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute history query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var results []models.Snapshot
	for rows.Next() {
		var result models.Snapshot
		var entriesJSON string
		if err := rows.Scan(&result.Id, &result.Collector, &result.Checksum, &entriesJSON, &result.CollectedOn); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(entriesJSON), &result.Entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return results, nil
}

func (repo *sqliteRepository) Check() checks.Check {
	return &checks.SqlCheck{Sql: repo.db}
}

func (repo *sqliteRepository) Close() error {
	return repo.db.Close()
}
