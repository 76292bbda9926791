package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/phillip-england/turntime/internal/leaderboard"
)

const (
	ColumnSite     = "Site"
	ColumnServer   = "Server"
	ColumnTurnTime = "Turn Time"
)

// Thresholds split turn times into good, warning and bad. Values below Green
// are good; values up to and including YellowHi are a warning.
type Thresholds struct {
	Green    float64 `json:"green"`
	YellowHi float64 `json:"yellowHi"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Green: 35, YellowHi: 37}
}

func (th Thresholds) Validate() error {
	if math.IsNaN(th.Green) || math.IsInf(th.Green, 0) {
		return errors.New("green threshold must be a finite number")
	}
	if math.IsNaN(th.YellowHi) || math.IsInf(th.YellowHi, 0) {
		return errors.New("yellow threshold must be a finite number")
	}
	return nil
}

type Tone int

const (
	ToneDefault Tone = iota
	ToneHeader
	ToneAverage
	ToneGood
	ToneWarning
	ToneBad
)

func (t Tone) String() string {
	switch t {
	case ToneHeader:
		return "header"
	case ToneAverage:
		return "average"
	case ToneGood:
		return "good"
	case ToneWarning:
		return "warning"
	case ToneBad:
		return "bad"
	default:
		return "default"
	}
}

func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tone) UnmarshalText(text []byte) error {
	for candidate := ToneDefault; candidate <= ToneBad; candidate++ {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown tone %q", text)
}

// Classify buckets a turn time. NaN never matches a bucket and stays
// uncolored.
func Classify(minutes float64, th Thresholds) Tone {
	switch {
	case minutes < th.Green:
		return ToneGood
	case minutes >= th.Green && minutes <= th.YellowHi:
		return ToneWarning
	case minutes > th.YellowHi:
		return ToneBad
	default:
		return ToneDefault
	}
}

type Cell struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
	Bold bool   `json:"bold"`
}

// Grid is the leaderboard as it will be drawn, independent of pixels.
type Grid struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Header  []Cell   `json:"header"`
	Rows    [][]Cell `json:"rows"`
}

func Layout(board leaderboard.Board, title string, th Thresholds) Grid {
	columns := []string{ColumnServer, ColumnTurnTime}
	if board.HasSite {
		columns = append([]string{ColumnSite}, columns...)
	}
	turnIdx := len(columns) - 1

	header := make([]Cell, len(columns))
	for i, name := range columns {
		header[i] = Cell{Text: name, Tone: ToneHeader, Bold: true}
	}

	rows := make([][]Cell, 0, len(board.Rows))
	for _, row := range board.Rows {
		values := []string{row.Server, FormatMinutes(row.TurnTime)}
		if board.HasSite {
			values = append([]string{row.Site}, values...)
		}

		cells := make([]Cell, len(values))
		average := row.IsAverage()
		for i, value := range values {
			cells[i] = Cell{Text: value}
			if average {
				cells[i].Tone = ToneAverage
				cells[i].Bold = true
			}
		}
		if !average {
			cells[turnIdx].Tone = Classify(row.TurnTime, th)
		}
		rows = append(rows, cells)
	}

	return Grid{Title: title, Columns: columns, Header: header, Rows: rows}
}

// FormatMinutes prints the shortest exact form with at least one decimal,
// so 30 reads "30.0" and 37.25 reads "37.25".
func FormatMinutes(minutes float64) string {
	text := strconv.FormatFloat(minutes, 'f', -1, 64)
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return text
	}
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}
