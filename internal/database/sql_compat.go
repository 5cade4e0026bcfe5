package database

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// activeDriver is set once by Open (or by tests via SetDriver). Postgres is
// the default.
var activeDriver atomic.Value

func init() {
	activeDriver.Store(DriverPostgres)
}

// SetDriver overrides the active driver. Called by Open; exported for tests.
func SetDriver(driver string) {
	activeDriver.Store(normalizeDriver(driver))
}

// Driver returns the active database driver name.
func Driver() string {
	return activeDriver.Load().(string)
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMySQL, "mariadb":
		return DriverMySQL
	default:
		return DriverPostgres
	}
}

// IsMySQL reports whether the active driver is MySQL/MariaDB.
func IsMySQL() bool { return Driver() == DriverMySQL }

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// ConvertPlaceholders converts SQL placeholders to the format required by
// the active database. All queries in the codebase use ? placeholders; this
// is the only conversion point.
//
//   - PostgreSQL: ? -> $1, $2, ...
//   - MySQL: ? passed through; ILIKE rewritten to LIKE
//
// $N placeholders in the input are a programming error and panic.
func ConvertPlaceholders(query string) string {
	if dollarPlaceholder.MatchString(query) {
		panic(fmt.Sprintf("ConvertPlaceholders: $N placeholders are not allowed, use ?\nQuery: %s", query))
	}

	if IsMySQL() {
		query = strings.ReplaceAll(query, " ILIKE ", " LIKE ")
		return query
	}

	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	n := 1
	for _, c := range query {
		if c == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
