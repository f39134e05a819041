package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawReport is a disaster report as read from the intake topic, before
// parsing. Commit acknowledges the message; it may be nil.
type RawReport struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
	Commit    func(ctx context.Context) error
}

// ParseReport decodes and validates a report payload of the form
// {"title","description","tags","owner_id"}. A missing owner_id is filled
// from the "user" header when present.
func ParseReport(raw RawReport) (CreateDisasterInput, error) {
	var in CreateDisasterInput
	if err := json.Unmarshal(raw.Value, &in); err != nil {
		return CreateDisasterInput{}, fmt.Errorf("decode report at offset %d: %w", raw.Offset, NewValidationError(err.Error()))
	}
	if in.OwnerID == "" {
		in.OwnerID = raw.Headers["user"]
	}
	if err := in.Validate(); err != nil {
		return CreateDisasterInput{}, err
	}
	if in.OwnerID == "" {
		return CreateDisasterInput{}, NewValidationError("owner_id is required")
	}
	return in, nil
}
