package service

import (
	"context"
	"time"

	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

const noProjectLabel = "No Project"

type ReportService struct {
	entries repository.TimeEntryRepository
}

func newReportService(entries repository.TimeEntryRepository) *ReportService {
	return &ReportService{entries: entries}
}

// Report sums the caller's completed entries, overall and per project name.
func (s *ReportService) Report(ctx context.Context, id models.Identity) (models.Report, error) {
	totals, err := s.entries.ProjectTotals(ctx, id.UserID)
	if err != nil {
		return models.Report{}, storage(err, "", "project totals")
	}

	var sum time.Duration
	breakdown := make([]models.ProjectBreakdown, 0, len(totals))
	for _, t := range totals {
		sum += t.Total
		name := noProjectLabel
		if t.ProjectName != nil {
			name = *t.ProjectName
		}
		breakdown = append(breakdown, models.ProjectBreakdown{
			ProjectName:  name,
			HoursStr:     models.FormatClock(t.Total),
			TotalSeconds: int64(t.Total / time.Second),
		})
	}
	return models.Report{
		TotalTime:        models.FormatClock(sum),
		TotalSeconds:     int64(sum / time.Second),
		ProjectBreakdown: breakdown,
	}, nil
}
