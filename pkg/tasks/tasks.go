// Package tasks defines the messages exchanged over Kafka.
package tasks

import "time"

// 快照生命周期事件类型。
const (
	EventSnapshotReady  = "snapshot_ready"
	EventSnapshotFailed = "snapshot_failed"
)

// SnapshotEvent is published whenever a snapshot build finishes.
type SnapshotEvent struct {
	Type           string    `json:"type"`
	SnapshotID     string    `json:"snapshot_id,omitempty"`
	Tier           string    `json:"tier"`
	Movies         int       `json:"movies"`
	VocabularySize int       `json:"vocabulary_size"`
	DurationMs     int64     `json:"duration_ms"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ReloadTask asks a running instance to rebuild its full snapshot.
type ReloadTask struct {
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}
