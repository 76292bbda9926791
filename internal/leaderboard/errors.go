package leaderboard

import (
	"fmt"
	"strings"
)

// SchemaError lists every required role the export had no column for.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required column(s): " + strings.Join(e.Missing, ", ")
}

// NoValidRowsError means filtering left nothing to rank.
type NoValidRowsError struct {
	TotalRows int
	EatInRows int
}

func (e *NoValidRowsError) Error() string {
	return fmt.Sprintf("no valid Eat In rows with calculable Turn Time were found (%d rows read, %d eat in)", e.TotalRows, e.EatInRows)
}
