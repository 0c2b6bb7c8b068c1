package redisx

import "time"

const (
	// Snapshot cache per user: hash snapshot:{user_id}, field = archive scope -> snapshot JSON
	KeySnapshot = "snapshot:%s"

	// Snapshot generation per user, bumped on every invalidation: snapshot_gen:{user_id}
	KeySnapshotGen = "snapshot_gen:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSnapshot    = 5 * time.Minute
	TTLSnapshotGen = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
