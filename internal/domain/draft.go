package domain

import (
	"encoding/json"
	"time"
)

// Draft is a person's saved, uncommitted reorganization. The payload is
// opaque to the service and drafts never enter commit history.
type Draft struct {
	ID            int64
	PersonID      int64
	CorporationID *int64
	Title         string
	Payload       json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
