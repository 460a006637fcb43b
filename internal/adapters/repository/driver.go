package repository

import "strings"

// Driver is the relational engine behind a connection URL.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverUnknown  Driver = ""
)

// DetectDriver maps a connection URL to a driver. An empty URL is unknown:
// the relational backend is never enabled implicitly.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverUnknown
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "file:"),
		url == ":memory:",
		strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverUnknown
	}
}

// sqlitePath strips the sqlite:// scheme so the rest reaches the driver as a
// plain path or file: URI.
func sqlitePath(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}
