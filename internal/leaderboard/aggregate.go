package leaderboard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/phillip-england/turntime/internal/table"
)

const (
	StoreAverage  = "STORE AVERAGE"
	UnknownServer = "(Unknown)"
	eatInMarker   = "eat in"
	decimalPlaces = 2
)

// Row is one line of the leaderboard. Site is empty unless the board has a
// single site.
type Row struct {
	Site     string  `json:"site,omitempty"`
	Server   string  `json:"server"`
	TurnTime float64 `json:"turnTime"`
}

func (r Row) IsAverage() bool {
	return strings.EqualFold(strings.TrimSpace(r.Server), StoreAverage)
}

type Stats struct {
	TotalRows int `json:"totalRows"`
	EatInRows int `json:"eatInRows"`
	ValidRows int `json:"validRows"`
}

// Board is the ranked leaderboard: employees ascending by mean turn time,
// then the store average.
type Board struct {
	HasSite bool  `json:"hasSite"`
	Rows    []Row `json:"rows"`
	Stats   Stats `json:"stats"`
}

type turnTime struct {
	employee string
	minutes  float64
	site     string
	hasSite  bool
}

type group struct {
	employee string
	minutes  []float64
	mean     float64
}

// Aggregate computes the leaderboard for one export.
func Aggregate(t table.Table, m ColumnMapping) (Board, error) {
	turnTimes, st := eligibleTurnTimes(t, m)
	if len(turnTimes) == 0 {
		return Board{}, &NoValidRowsError{TotalRows: st.TotalRows, EatInRows: st.EatInRows}
	}

	groups, err := groupByEmployee(turnTimes)
	if err != nil {
		return Board{}, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].mean < groups[j].mean
	})

	all := make([]float64, 0, len(turnTimes))
	for _, tt := range turnTimes {
		all = append(all, tt.minutes)
	}
	storeMean, err := stats.Mean(all)
	if err != nil {
		return Board{}, fmt.Errorf("store average: %w", err)
	}

	rows := make([]Row, 0, len(groups)+1)
	for _, g := range groups {
		rows = append(rows, Row{Server: g.employee, TurnTime: round(g.mean)})
	}
	rows = append(rows, Row{Server: StoreAverage, TurnTime: round(storeMean)})

	board := Board{Rows: rows, Stats: st}
	if site, ok := singleSite(turnTimes); ok {
		board.HasSite = true
		for i := range board.Rows {
			board.Rows[i].Site = site
		}
	}
	return board, nil
}

func eligibleTurnTimes(t table.Table, m ColumnMapping) ([]turnTime, Stats) {
	st := Stats{TotalRows: len(t.Rows)}
	var out []turnTime
	for _, row := range t.Rows {
		if !isEatIn(row.Get(m.Service.Name)) {
			continue
		}
		st.EatInRows++

		opened, ok := row.Get(m.Opened.Name).Timestamp()
		if !ok {
			continue
		}
		closed, ok := row.Get(m.Closed.Name).Timestamp()
		if !ok {
			continue
		}
		minutes := closed.Sub(opened).Minutes()
		if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
			continue
		}

		employee := UnknownServer
		if cell := row.Get(m.Employee.Name); !cell.IsMissing() {
			employee = cell.String()
		}

		tt := turnTime{employee: employee, minutes: minutes}
		if m.Site.Present {
			if cell := row.Get(m.Site.Name); !cell.IsMissing() {
				tt.site = cell.String()
				tt.hasSite = true
			}
		}
		out = append(out, tt)
	}
	st.ValidRows = len(out)
	return out, st
}

func isEatIn(service table.Cell) bool {
	if service.IsMissing() {
		return false
	}
	return strings.Contains(strings.ToLower(service.String()), eatInMarker)
}

func groupByEmployee(turnTimes []turnTime) ([]group, error) {
	index := make(map[string]int)
	var groups []group
	for _, tt := range turnTimes {
		i, ok := index[tt.employee]
		if !ok {
			i = len(groups)
			index[tt.employee] = i
			groups = append(groups, group{employee: tt.employee})
		}
		groups[i].minutes = append(groups[i].minutes, tt.minutes)
	}
	for i := range groups {
		mean, err := stats.Mean(groups[i].minutes)
		if err != nil {
			return nil, fmt.Errorf("mean turn time for %q: %w", groups[i].employee, err)
		}
		groups[i].mean = mean
	}
	return groups, nil
}

func singleSite(turnTimes []turnTime) (string, bool) {
	site := ""
	found := false
	for _, tt := range turnTimes {
		if !tt.hasSite {
			continue
		}
		if !found {
			site, found = tt.site, true
			continue
		}
		if tt.site != site {
			return "", false
		}
	}
	return site, found
}

func round(v float64) float64 {
	rounded, err := stats.Round(v, decimalPlaces)
	if err != nil {
		return v
	}
	return rounded
}
