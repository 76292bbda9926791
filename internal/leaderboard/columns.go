package leaderboard

import (
	"strings"
)

type Role int

const (
	RoleOpened Role = iota
	RoleClosed
	RoleService
	RoleEmployee
	RoleSite
)

var roles = []Role{RoleOpened, RoleClosed, RoleService, RoleEmployee, RoleSite}

func (r Role) String() string {
	switch r {
	case RoleOpened:
		return "Opened"
	case RoleClosed:
		return "Closed"
	case RoleService:
		return "Service"
	case RoleEmployee:
		return "Created By"
	case RoleSite:
		return "Site"
	default:
		return "unknown"
	}
}

func (r Role) Required() bool {
	return r != RoleSite
}

// aliases are lowercase and matched either exactly or as a substring of the
// normalized header.
var aliases = map[Role][]string{
	RoleOpened:   {"opened", "open", "order start", "start time", "opened at"},
	RoleClosed:   {"closed", "close", "order end", "end time", "closed at"},
	RoleService:  {"service", "service type", "order type"},
	RoleEmployee: {"created by", "server", "server name", "employee", "cashier"},
	RoleSite:     {"site", "location", "store", "restaurant"},
}

// Column is a resolved header, or absent when Present is false.
type Column struct {
	Name    string
	Present bool
}

type ColumnMapping struct {
	Opened   Column
	Closed   Column
	Service  Column
	Employee Column
	Site     Column
}

func (m ColumnMapping) Column(role Role) Column {
	switch role {
	case RoleOpened:
		return m.Opened
	case RoleClosed:
		return m.Closed
	case RoleService:
		return m.Service
	case RoleEmployee:
		return m.Employee
	case RoleSite:
		return m.Site
	default:
		return Column{}
	}
}

func (m *ColumnMapping) set(role Role, column Column) {
	switch role {
	case RoleOpened:
		m.Opened = column
	case RoleClosed:
		m.Closed = column
	case RoleService:
		m.Service = column
	case RoleEmployee:
		m.Employee = column
	case RoleSite:
		m.Site = column
	}
}

// Resolve maps the export's headers onto the roles the aggregator needs.
// The first column in table order that matches any alias of a role wins.
func Resolve(columns []string) (ColumnMapping, error) {
	var mapping ColumnMapping
	var missing []string
	for _, role := range roles {
		column := pickColumn(columns, aliases[role])
		if !column.Present && role.Required() {
			missing = append(missing, role.String())
			continue
		}
		mapping.set(role, column)
	}
	if len(missing) > 0 {
		return ColumnMapping{}, &SchemaError{Missing: missing}
	}
	return mapping, nil
}

func pickColumn(columns []string, candidates []string) Column {
	for _, name := range columns {
		normalized := normalizeHeader(name)
		for _, alias := range candidates {
			if normalized == alias || strings.Contains(normalized, alias) {
				return Column{Name: name, Present: true}
			}
		}
	}
	return Column{}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}
