package table

import (
	"fmt"
	"strings"
	"time"
)

// TimeComparison selects how planned and actual on-air dates are compared
// when deriving status: by exact day, by ISO week (Monday start), or by
// calendar month.
type TimeComparison string

// Time comparison modes.
const (
	CompareDay   TimeComparison = "Day"
	CompareWeek  TimeComparison = "Week (Monday start)"
	CompareMonth TimeComparison = "Month"
)

// Derived column names added by DeriveTimeColumns.
const (
	ColPlannedWeek  = "Planned_Week_Label"
	ColActualWeek   = "Actual_Week_Label"
	ColWeekStatus   = "Week_Status"
	ColPlannedMonth = "Planned_Month_Label"
	ColActualMonth  = "Actual_Month_Label"
	ColMonthStatus  = "Month_Status"
)

// Status values produced by the week/month comparison.
const (
	StatusEarly   = "Early"
	StatusOnTime  = "On-Time"
	StatusDelayed = "Delayed"
	StatusPending = "Pending"
)

// DeriveTimeColumns adds week or month bucket label columns plus the matching
// status column, computed from the planned and actual on-air dates. Day
// comparison adds nothing; the raw Status column already reflects it.
// Rows without parseable dates get null labels and Pending status.
func DeriveTimeColumns(t *Table, mode TimeComparison) {
	switch mode {
	case CompareWeek:
		deriveBuckets(t, ColPlannedWeek, ColActualWeek, ColWeekStatus, weekLabel)
	case CompareMonth:
		deriveBuckets(t, ColPlannedMonth, ColActualMonth, ColMonthStatus, monthLabel)
	}
}

// StatusColumn returns the column that carries status under the given
// comparison mode, falling back to the plain Status column when the derived
// one is absent.
func StatusColumn(t *Table, mode TimeComparison) string {
	switch mode {
	case CompareWeek:
		if t.HasColumn(ColWeekStatus) {
			return ColWeekStatus
		}
	case CompareMonth:
		if t.HasColumn(ColMonthStatus) {
			return ColMonthStatus
		}
	}
	return ColStatus
}

func deriveBuckets(t *Table, plannedCol, actualCol, statusCol string, label func(time.Time) string) {
	if !t.HasColumn(ColPlannedDate) && !t.HasColumn(ColActualDate) {
		return
	}
	t.AddColumn(plannedCol)
	t.AddColumn(actualCol)
	t.AddColumn(statusCol)

	for _, row := range t.Rows {
		planned, plannedOK := row.Get(ColPlannedDate).Time()
		actual, actualOK := row.Get(ColActualDate).Time()
		if plannedOK {
			row[plannedCol] = String(label(planned))
		}
		if actualOK {
			row[actualCol] = String(label(actual))
		}
		row[statusCol] = String(bucketStatus(row.Get(plannedCol), row.Get(actualCol)))
	}
}

// bucketStatus compares the sortable bucket key (the part before the first
// space in the label) of planned vs actual. Missing either side is Pending.
func bucketStatus(planned, actual Value) string {
	if planned.IsNull() || actual.IsNull() {
		return StatusPending
	}
	p := bucketKey(planned.String())
	a := bucketKey(actual.String())
	switch {
	case a == p:
		return StatusOnTime
	case a < p:
		return StatusEarly
	default:
		return StatusDelayed
	}
}

func bucketKey(label string) string {
	if i := strings.IndexByte(label, ' '); i >= 0 {
		return label[:i]
	}
	return label
}

// weekLabel formats a date as its ISO week bucket, e.g. "2024-W05 (Jan 29)".
// ISO weeks start on Monday.
func weekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d (%s)", year, week, t.Format("Jan 02"))
}

// monthLabel formats a date as its month bucket, e.g. "2024-01 (January 2024)".
func monthLabel(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Format("2006-01"), t.Format("January 2006"))
}

// Summary aggregates the on-air KPIs over a table: status counts plus delay
// statistics from the Delay_Days column. Non-numeric delay cells are ignored.
type Summary struct {
	TotalRows int
	Early     int
	OnTime    int
	Delayed   int
	Pending   int
	AvgDelay  float64 // mean of positive delay days
	MaxDelay  float64
	AvgEarly  float64 // mean magnitude of negative delay days
}

// Summarize computes the KPI summary using the status column appropriate for
// the comparison mode.
func Summarize(t *Table, mode TimeComparison) Summary {
	s := Summary{TotalRows: t.Len()}
	statusCol := StatusColumn(t, mode)

	var delaySum, earlySum float64
	var delayN, earlyN int
	for _, row := range t.Rows {
		switch row.Get(statusCol).String() {
		case StatusEarly:
			s.Early++
		case StatusOnTime:
			s.OnTime++
		case StatusDelayed:
			s.Delayed++
		case StatusPending:
			s.Pending++
		}
		if d, ok := row.Get(ColDelayDays).Number(); ok {
			switch {
			case d > 0:
				delaySum += d
				delayN++
				if d > s.MaxDelay {
					s.MaxDelay = d
				}
			case d < 0:
				earlySum += -d
				earlyN++
			}
		}
	}
	if delayN > 0 {
		s.AvgDelay = delaySum / float64(delayN)
	}
	if earlyN > 0 {
		s.AvgEarly = earlySum / float64(earlyN)
	}
	return s
}
