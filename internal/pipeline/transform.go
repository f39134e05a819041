package pipeline

import (
	"context"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

// ReportTransformer decodes and validates intake reports.
type ReportTransformer struct{}

// NewTransformer creates a ReportTransformer.
func NewTransformer() *ReportTransformer {
	return &ReportTransformer{}
}

func (ReportTransformer) Transform(_ context.Context, raw domain.RawReport) (domain.CreateDisasterInput, error) {
	return domain.ParseReport(raw)
}
