package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
)

type ReportRepository struct {
	mu     sync.RWMutex
	byDate map[string]report.Report
}

var _ report.Repository = (*ReportRepository)(nil)

func NewReportRepository() *ReportRepository {
	return &ReportRepository{byDate: make(map[string]report.Report)}
}

// Save replaces any report already stored for the same date.
func (r *ReportRepository) Save(_ context.Context, item report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Entries = append([]report.Entry(nil), item.Entries...)
	r.byDate[item.DateKey()] = item
	return nil
}

func (r *ReportRepository) GetByDate(_ context.Context, date time.Time) (report.Report, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byDate[date.Format(report.DateLayout)]
	if !ok {
		return report.Report{}, false, nil
	}
	item.Entries = append([]report.Entry(nil), item.Entries...)
	return item, true, nil
}
