package entity

import "time"

// JobRecord is the relational index row written once when a job is
// dispatched. Progress truth lives in the status store, not here.
type JobRecord struct {
	JobID       string `gorm:"primaryKey;type:uuid"`
	RequestedBy string
	CreatedAt   time.Time
}
