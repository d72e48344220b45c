package report

import (
	"context"
	"time"
)

// Writer persists a finished report.
type Writer interface {
	Save(ctx context.Context, report Report) error
}

type Repository interface {
	Writer
	GetByDate(ctx context.Context, date time.Time) (Report, bool, error)
}
