package models

import "time"

// Snapshot is a stored copy of one collector's merged output.
type Snapshot struct {
	Id          int64     `json:"id"`
	Collector   string    `json:"collector"`
	Checksum    string    `json:"checksum"`
	Entries     []Entry   `json:"entries"`
	CollectedOn time.Time `json:"collected_on"`
}

type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type SnapshotResponse struct {
	Results     []Snapshot `json:"results"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}
