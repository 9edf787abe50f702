package store

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Config describes the connection to a relational store.
// DSN is used as it is if set, otherwise it is built from the other fields.
type Config struct {
	Driver       string // sqlite, mysql or postgres
	DSN          string
	Path         string // Database file of SQLite
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string // disable, require, ...
	MaxOpenConns int
}

func (c Config) maxOpenConns() int {
	if c.MaxOpenConns > 0 {
		return c.MaxOpenConns
	}
	return 5
}

func (c Config) dataSourceName(dialect Dialect) (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch dialect.Name() {
	case "sqlite":
		if c.Path == "" {
			return "", fmt.Errorf("sqlite: missing database path")
		}
		return SQLiteDSN(c.Path), nil
	case "mysql":
		return MySQLDSN(c), nil
	case "postgres":
		return PostgresDSN(c), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, dialect.Name())
}

// SQLiteDSN returns the DSN of a database file, with a busy timeout and
// time values stored in the SQLite text format
func SQLiteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// MySQLDSN builds the DSN of a MySQL connection, time values are parsed to time.Time
func MySQLDSN(c Config) string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if c.SSLMode == "require" {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}

// PostgresDSN builds the connection string of a PostgreSQL connection
func PostgresDSN(c Config) string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteValue(c.Host), port, quoteValue(c.User), quoteValue(c.Password), quoteValue(c.Database), sslMode,
	)
}

// quoteValue quotes a connection string value containing spaces or quotes
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}
