package orders

const (
	TopicLedgerChanged = "ledger.changed"
)

// Partition key = user id, so one user's changes stay ordered.
func PartitionKey(userID string) []byte { return []byte(userID) }
