package table

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "missing"
	}
}

// Cell is a single value read from an export. Only the field matching Kind
// is meaningful.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

func Missing() Cell {
	return Cell{Kind: KindMissing}
}

func Text(value string) Cell {
	return Cell{Kind: KindText, Text: value}
}

func Number(value float64) Cell {
	return Cell{Kind: KindNumber, Number: value}
}

func Time(value time.Time) Cell {
	return Cell{Kind: KindTime, Time: value}
}

// Infer types a raw spreadsheet value: blank is missing, anything that
// parses as a finite float is a number, everything else is text. Words like
// "Nan" or "Inf" stay text.
func Infer(raw string) Cell {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Missing()
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Number(n)
	}
	return Text(value)
}

func (c Cell) IsMissing() bool {
	switch c.Kind {
	case KindMissing:
		return true
	case KindText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindTime:
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// maxExcelSerial is 9999-12-31, the last day Excel can represent.
const maxExcelSerial = 2958465

func validSerial(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v < maxExcelSerial+1
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006 03:04 PM",
	"1/2/2006 3:04PM",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	"1/2/06 3:04 PM",
	"1/2/06 15:04",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"January 2, 2006 3:04 PM",
	"3:04:05 PM",
	"3:04 PM",
	"3:04PM",
	"15:04:05",
	"15:04",
}

// Timestamp reports the cell as a point in time. Numbers are read as Excel
// serial dates. A false result covers both missing and unparsable values.
func (c Cell) Timestamp() (time.Time, bool) {
	switch c.Kind {
	case KindTime:
		return c.Time, true
	case KindNumber:
		if !validSerial(c.Number) {
			return time.Time{}, false
		}
		parsed, err := excelize.ExcelDateToTime(c.Number, false)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case KindText:
		value := strings.TrimSpace(c.Text)
		if value == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
