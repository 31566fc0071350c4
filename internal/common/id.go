package common

import (
	"github.com/google/uuid"
)

// NewRequestID generates a unique ingestion request ID with the "req_" prefix
// Format: req_<uuid>
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
