package leaderboard

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phillip-england/turntime/internal/table"
)

var standardColumns = []string{"Opened", "Closed", "Service", "Created By", "Site"}

func order(opened, closed, service, server string) table.Row {
	return table.Row{
		"Opened":     table.Infer(opened),
		"Closed":     table.Infer(closed),
		"Service":    table.Infer(service),
		"Created By": table.Infer(server),
	}
}

func withSite(row table.Row, site string) table.Row {
	row["Site"] = table.Infer(site)
	return row
}

func mustResolve(t *testing.T, columns []string) ColumnMapping {
	t.Helper()
	m, err := Resolve(columns)
	require.NoError(t, err)
	return m
}

func TestResolveMatchesAliasesBySubstring(t *testing.T) {
	m := mustResolve(t, []string{"Order Number", " Opened At ", "Time Closed", "Order Type", "Server Name", "Restaurant #"})
	assert.Equal(t, Column{Name: " Opened At ", Present: true}, m.Opened)
	assert.Equal(t, Column{Name: "Time Closed", Present: true}, m.Closed)
	assert.Equal(t, Column{Name: "Order Type", Present: true}, m.Service)
	assert.Equal(t, Column{Name: "Server Name", Present: true}, m.Employee)
	assert.Equal(t, Column{Name: "Restaurant #", Present: true}, m.Site)
}

func TestResolveFirstColumnWins(t *testing.T) {
	// "Cashier" appears before "Created By"; table order beats alias order.
	m := mustResolve(t, []string{"Opened", "Closed", "Service", "Cashier", "Created By"})
	assert.Equal(t, "Cashier", m.Employee.Name)
}

func TestResolveIsDeterministic(t *testing.T) {
	columns := []string{"Location", "Store", "Opened", "Closed", "Service Type", "Employee", "Server"}
	first := mustResolve(t, columns)
	second := mustResolve(t, columns)
	assert.Equal(t, first, second)
	assert.Equal(t, "Location", first.Site.Name)
}

func TestResolveSiteIsOptional(t *testing.T) {
	m := mustResolve(t, []string{"Opened", "Closed", "Service", "Created By"})
	assert.False(t, m.Site.Present)
	assert.False(t, m.Column(RoleSite).Present)
}

func TestResolveReportsMissingEmployee(t *testing.T) {
	_, err := Resolve([]string{"Opened", "Closed", "Service", "Total"})
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"Created By"}, schemaErr.Missing)
	assert.Equal(t, "missing required column(s): Created By", err.Error())
}

func TestResolveReportsAllMissingRoles(t *testing.T) {
	_, err := Resolve([]string{"Total", "Tip"})
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"Opened", "Closed", "Service", "Created By"}, schemaErr.Missing)
}

func TestAggregateEndToEnd(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00", "10:30", "Eat In", "A"),
			order("10:00", "10:50", "Eat In", "B"),
			order("10:00", "10:10", "Delivery", "C"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	assert.False(t, board.HasSite)
	assert.Equal(t, []Row{
		{Server: "A", TurnTime: 30},
		{Server: "B", TurnTime: 50},
		{Server: StoreAverage, TurnTime: 40},
	}, board.Rows)
	assert.Equal(t, Stats{TotalRows: 3, EatInRows: 2, ValidRows: 2}, board.Stats)
}

func TestAggregateFiltersEatInLiterally(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00", "10:30", "Eat In", "A"),
			order("10:00", "10:40", "eat in - dining room", "B"),
			order("10:00", "10:05", "EAT-IN", "C"),
			order("10:00", "10:05", "Take Out", "D"),
			order("10:00", "10:05", "to go", "E"),
			order("10:00", "10:05", "", "F"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	servers := make([]string, 0, len(board.Rows))
	for _, row := range board.Rows {
		servers = append(servers, row.Server)
	}
	assert.Equal(t, []string{"A", "B", StoreAverage}, servers)
}

func TestAggregateDropsNegativeAndUnparsableTurnTimes(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00", "10:20", "Eat In", "A"),
			order("10:30", "10:00", "Eat In", "A"),
			order("soon", "10:00", "Eat In", "B"),
			order("10:00", "", "Eat In", "B"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{Server: "A", TurnTime: 20},
		{Server: StoreAverage, TurnTime: 20},
	}, board.Rows)
}

func TestAggregateDropsNonFiniteSerials(t *testing.T) {
	serialOrder := func(opened table.Cell, server string) table.Row {
		return table.Row{
			"Opened":     opened,
			"Closed":     table.Number(45352.52083333333),
			"Service":    table.Text("Eat In"),
			"Created By": table.Infer(server),
		}
	}
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			serialOrder(table.Number(45352.5), "A"),
			serialOrder(table.Infer("NaN"), "B"),
			serialOrder(table.Number(math.NaN()), "B"),
			serialOrder(table.Number(math.Inf(-1)), "B"),
			serialOrder(table.Number(1e300), "B"),
			serialOrder(table.Number(45352.5), "Nan"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	require.Len(t, board.Rows, 3)
	assert.Equal(t, "A", board.Rows[0].Server)
	assert.InDelta(t, 30.0, board.Rows[0].TurnTime, 0.01)
	assert.Equal(t, "Nan", board.Rows[1].Server)
	assert.Equal(t, StoreAverage, board.Rows[2].Server)
	assert.InDelta(t, 30.0, board.Rows[2].TurnTime, 0.01)
	assert.Equal(t, 2, board.Stats.ValidRows)
}

func TestAggregateNoValidRows(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00", "10:30", "Take Out", "A"),
			order("10:30", "10:00", "Eat In", "B"),
		},
	}
	_, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	var noRows *NoValidRowsError
	require.True(t, errors.As(err, &noRows))
	assert.Equal(t, 2, noRows.TotalRows)
	assert.Equal(t, 1, noRows.EatInRows)
}

func TestAggregateBucketsUnknownEmployees(t *testing.T) {
	blank := order("10:00", "10:10", "Eat In", "")
	missing := order("10:00", "10:30", "Eat In", "x")
	delete(missing, "Created By")
	spaces := order("10:00", "10:20", "Eat In", "x")
	spaces["Created By"] = table.Text("   ")

	tbl := table.Table{Columns: standardColumns[:4], Rows: []table.Row{blank, missing, spaces}}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{Server: UnknownServer, TurnTime: 20},
		{Server: StoreAverage, TurnTime: 20},
	}, board.Rows)
}

func TestAggregateStoreAverageUsesEveryRow(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00", "10:10", "Eat In", "A"),
			order("10:00", "10:10", "Eat In", "A"),
			order("10:00", "10:10", "Eat In", "A"),
			order("10:00", "10:50", "Eat In", "B"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)

	last := board.Rows[len(board.Rows)-1]
	assert.Equal(t, StoreAverage, last.Server)
	// (10+10+10+50)/4 = 20, whereas the mean of group means is 30.
	assert.Equal(t, 20.0, last.TurnTime)
	assert.NotEqual(t, (board.Rows[0].TurnTime+board.Rows[1].TurnTime)/2, last.TurnTime)
}

func TestAggregateSortsAscendingWithSentinelLast(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00", "10:45", "Eat In", "Slow"),
			order("10:00", "10:05", "Eat In", "Fast"),
			order("10:00", "10:20", "Eat In", "Mid"),
			order("10:00", "10:21", "Eat In", "Mid"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	require.Len(t, board.Rows, 4)
	for i := 1; i < len(board.Rows)-1; i++ {
		assert.LessOrEqual(t, board.Rows[i-1].TurnTime, board.Rows[i].TurnTime)
	}
	assert.Equal(t, "Fast", board.Rows[0].Server)
	assert.Equal(t, 20.5, board.Rows[1].TurnTime)
	assert.True(t, board.Rows[3].IsAverage())
}

func TestAggregateRoundsToTwoPlaces(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns[:4],
		Rows: []table.Row{
			order("10:00:00", "10:10:00", "Eat In", "A"),
			order("10:00:00", "10:10:00", "Eat In", "A"),
			order("10:00:00", "10:10:20", "Eat In", "A"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	// (10 + 10 + 10.3333) / 3 = 10.1111
	assert.Equal(t, 10.11, board.Rows[0].TurnTime)
}

func TestAggregateAnnotatesSingleSite(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns,
		Rows: []table.Row{
			withSite(order("10:00", "10:30", "Eat In", "A"), "Downtown"),
			order("10:00", "10:40", "Eat In", "B"),
			withSite(order("10:00", "10:40", "Take Out", "C"), "Uptown"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	assert.True(t, board.HasSite)
	for _, row := range board.Rows {
		assert.Equal(t, "Downtown", row.Site)
	}
}

func TestAggregateOmitsSiteWhenMixed(t *testing.T) {
	tbl := table.Table{
		Columns: standardColumns,
		Rows: []table.Row{
			withSite(order("10:00", "10:30", "Eat In", "A"), "Downtown"),
			withSite(order("10:00", "10:40", "Eat In", "B"), "Uptown"),
		},
	}
	board, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	assert.False(t, board.HasSite)
	for _, row := range board.Rows {
		assert.Empty(t, row.Site)
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	row := order("10:00", "10:30", "Eat In", "")
	tbl := table.Table{Columns: standardColumns[:4], Rows: []table.Row{row}}
	_, err := Aggregate(tbl, mustResolve(t, tbl.Columns))
	require.NoError(t, err)
	assert.True(t, tbl.Rows[0].Get("Created By").IsMissing())
}
