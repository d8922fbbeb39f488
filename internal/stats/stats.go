// Package stats computes monthly campaign statistics. Everything here is a
// pure function over already-loaded campaigns; the store decides which rows
// are in range.
package stats

import (
	"fmt"
	"time"

	"github.com/jwkim-lab/revisit/internal/apperr"
	"github.com/jwkim-lab/revisit/internal/campaign"
)

// GroupBy selects the date field campaigns are grouped into months by.
type GroupBy string

const (
	GroupByVisitDate GroupBy = "visitDate"
	GroupByDeadline  GroupBy = "deadline"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case GroupByVisitDate, GroupByDeadline:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown grouping field %q", apperr.ErrInvalidArgument, s)
}

const monthLayout = "2006-01"

// ParseMonth parses a YYYY-MM month token into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", apperr.ErrInvalidArgument, s)
	}
	return t, nil
}

// MonthlyMetrics is one calendar month's slice of the statistics response.
type MonthlyMetrics struct {
	Month              string           `json:"month"`
	TotalCount         int64            `json:"totalCount"`
	StatusCount        map[string]int64 `json:"statusCount"`
	VisitRate          float64          `json:"visitRate"`
	ReviewCount        int64            `json:"reviewCount"`
	ReviewRate         float64          `json:"reviewRate"`
	TotalSupportAmount int64            `json:"totalSupportAmount"`
	TotalExtraCost     int64            `json:"totalExtraCost"`
	TotalExpenditure   int64            `json:"totalExpenditure"`
	AverageExpenditure float64          `json:"averageExpenditure"`
}

// MonthlyStatistics is the full aggregation result. StatusDistribution is
// the sum of the per-month status counts across the whole range.
type MonthlyStatistics struct {
	MonthlyData        []MonthlyMetrics `json:"monthlyData"`
	StatusDistribution map[string]int64 `json:"statusDistribution"`
}

// Aggregate groups campaigns into every month of [startMonth, endMonth]
// (inclusive, empty months included) by the chosen date field and computes
// per-month metrics. Campaigns whose grouping date is nil are skipped; this
// never fails on data shape.
func Aggregate(campaigns []*campaign.Campaign, startMonth, endMonth time.Time, groupBy GroupBy) MonthlyStatistics {
	byMonth := make(map[string][]*campaign.Campaign)
	for _, c := range campaigns {
		d := groupingDate(c, groupBy)
		if d == nil {
			continue
		}
		key := d.Format(monthLayout)
		byMonth[key] = append(byMonth[key], c)
	}

	var monthly []MonthlyMetrics
	distribution := make(map[string]int64)

	start := time.Date(startMonth.Year(), startMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endMonth.Year(), endMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		key := m.Format(monthLayout)
		metrics := monthMetrics(key, byMonth[key])
		for status, n := range metrics.StatusCount {
			distribution[status] += n
		}
		monthly = append(monthly, metrics)
	}

	return MonthlyStatistics{MonthlyData: monthly, StatusDistribution: distribution}
}

func groupingDate(c *campaign.Campaign, groupBy GroupBy) *time.Time {
	if groupBy == GroupByVisitDate {
		return c.VisitDate
	}
	if c.Deadline.IsZero() {
		return nil
	}
	d := c.Deadline
	return &d
}

func monthMetrics(month string, cs []*campaign.Campaign) MonthlyMetrics {
	m := MonthlyMetrics{
		Month:       month,
		TotalCount:  int64(len(cs)),
		StatusCount: make(map[string]int64),
	}

	var reserved, visited, done int64
	for _, c := range cs {
		m.StatusCount[string(c.Status)]++
		switch c.Status {
		case campaign.StatusReserved:
			reserved++
		case campaign.StatusVisited:
			visited++
		case campaign.StatusDone:
			done++
			if c.ReceiptReview {
				m.ReviewCount++
			}
		}
		m.TotalSupportAmount += amount(c.SupportAmount)
		m.TotalExtraCost += amount(c.ExtraCost)
	}
	m.TotalExpenditure = m.TotalSupportAmount + m.TotalExtraCost

	if denom := reserved + visited + done; denom > 0 {
		m.VisitRate = float64(visited+done) / float64(denom)
	}
	if done > 0 {
		m.ReviewRate = float64(m.ReviewCount) / float64(done)
	}
	if m.TotalCount > 0 {
		m.AverageExpenditure = float64(m.TotalExpenditure) / float64(m.TotalCount)
	}
	return m
}

func amount(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
