package dummydb

import (
	"context"
	"sort"
	"sync"

	"github.com/dsteam/cohortboard/core/report"
)

type (
	DB struct {
		reports *reportTable
	}

	reportTable struct {
		sync.RWMutex
		table map[string]report.IPPReport
	}
)

func Open() (*DB, error) {
	db := &DB{
		reports: &reportTable{table: make(map[string]report.IPPReport)},
	}
	return db, nil
}

type reportRepository struct {
	db *reportTable
}

var _ report.ArchiveRepository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.ArchiveRepository {
	return &reportRepository{db: db.reports}
}

func (repo *reportRepository) SaveReport(ctx context.Context, rpt report.IPPReport) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[rpt.ID] = rpt
	return nil
}

func (repo *reportRepository) GetReport(ctx context.Context, id string) (report.IPPReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rpt, ok := repo.db.table[id]
	if !ok {
		return report.IPPReport{}, report.ErrReportNotFound
	}
	return rpt, nil
}

func (repo *reportRepository) QueryAllReports(ctx context.Context) ([]report.IPPReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rpts := make([]report.IPPReport, 0, len(repo.db.table))
	for _, rpt := range repo.db.table {
		rpts = append(rpts, rpt)
	}
	sort.Slice(rpts, func(i, j int) bool { return rpts[i].GeneratedAt.After(rpts[j].GeneratedAt) })
	return rpts, nil
}
