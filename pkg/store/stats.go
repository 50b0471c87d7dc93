package store

import (
	"math"
	"path/filepath"
	"slices"
	"time"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// topFiles is how many files Statistics ranks.
const topFiles = 10

// Statistics aggregates the store contents.
type Statistics struct {
	Total int `json:"total_bugs"`

	// Every enum member has a key, zero when unused.
	ByStatus   map[bug.Status]int         `json:"by_status"`
	BySeverity map[bug.Severity]int       `json:"by_severity"`
	ByType     map[bug.Classification]int `json:"by_type"`

	// ByFile ranks file base names by record count, most first.
	ByFile []FileCount `json:"by_file"`

	// AverageAgeDays is the mean of each record's age in whole days.
	AverageAgeDays float64 `json:"average_age_days"`
}

// FileCount is a file base name and its record count.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Statistics returns counts by status, severity, classification and file
// plus the mean record age.
func (s *Store) Statistics() Statistics {
	st := Statistics{
		ByStatus:   make(map[bug.Status]int, len(bug.Statuses)),
		BySeverity: make(map[bug.Severity]int, len(bug.Severities)),
		ByType:     make(map[bug.Classification]int, len(bug.Classifications)),
		ByFile:     []FileCount{},
	}
	for _, v := range bug.Statuses {
		st.ByStatus[v] = 0
	}
	for _, v := range bug.Severities {
		st.BySeverity[v] = 0
	}
	for _, v := range bug.Classifications {
		st.ByType[v] = 0
	}

	now := s.now()
	fileIdx := map[string]int{}
	totalAge := 0

	for _, b := range s.list() {
		st.Total++
		st.ByStatus[b.Status]++
		st.BySeverity[b.Severity]++
		st.ByType[b.Type]++

		if b.FilePath != "" {
			name := filepath.Base(b.FilePath)
			if i, ok := fileIdx[name]; ok {
				st.ByFile[i].Count++
			} else {
				fileIdx[name] = len(st.ByFile)
				st.ByFile = append(st.ByFile, FileCount{File: name, Count: 1})
			}
		}

		totalAge += ageDays(now, b.CreatedAt)
	}

	// Stable so that ties keep first-seen order.
	slices.SortStableFunc(st.ByFile, func(a, b FileCount) int { return b.Count - a.Count })
	if len(st.ByFile) > topFiles {
		st.ByFile = st.ByFile[:topFiles]
	}

	if st.Total > 0 {
		st.AverageAgeDays = float64(totalAge) / float64(st.Total)
	}
	return st
}

// ageDays is the number of whole days from created to now, rounded down.
func ageDays(now, created time.Time) int {
	return int(math.Floor(now.Sub(created).Hours() / 24))
}

// Trend holds daily creation counts, oldest day first. Every slice has one
// entry per day in Dates.
type Trend struct {
	Dates      []string               `json:"dates"`
	Total      []int                  `json:"total"`
	BySeverity map[bug.Severity][]int `json:"by_severity"`
}

// Trend counts the records created on each of the last days days plus
// today, by severity. Dates are local calendar days as YYYY-MM-DD.
func (s *Store) Trend(days int) Trend {
	if days < 0 {
		days = 0
	}
	now := s.now()

	type counts struct {
		total int
		sev   map[bug.Severity]int
	}
	daily := map[string]*counts{}
	for _, b := range s.list() {
		if ageDays(now, b.CreatedAt) > days {
			continue
		}
		key := b.CreatedAt.In(now.Location()).Format(time.DateOnly)
		c, ok := daily[key]
		if !ok {
			c = &counts{sev: map[bug.Severity]int{}}
			daily[key] = c
		}
		c.total++
		c.sev[b.Severity]++
	}

	tr := Trend{BySeverity: make(map[bug.Severity][]int, len(bug.Severities))}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := days; i >= 0; i-- {
		key := midnight.AddDate(0, 0, -i).Format(time.DateOnly)
		tr.Dates = append(tr.Dates, key)
		c := daily[key]
		for _, sev := range bug.Severities {
			n := 0
			if c != nil {
				n = c.sev[sev]
			}
			tr.BySeverity[sev] = append(tr.BySeverity[sev], n)
		}
		if c != nil {
			tr.Total = append(tr.Total, c.total)
		} else {
			tr.Total = append(tr.Total, 0)
		}
	}
	return tr
}
