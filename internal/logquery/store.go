package logquery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"scanlink/config"
	"scanlink/util"
)

// Columns are the log_1 columns printed, in output order.
var Columns = []string{"date", "time", "message", "pgm_name"}

const rangeQuery = "SELECT date, time, message, pgm_name FROM log_1 WHERE date >= ? AND date <= ?"

// Row is one log entry.  Any column may be NULL.
type Row struct {
	Date    sql.NullString
	Time    sql.NullString
	Message sql.NullString
	Program sql.NullString
}

func (r Row) fields() []sql.NullString {
	return []sql.NullString{r.Date, r.Time, r.Message, r.Program}
}

// Open returns a handle to the MySQL database described by cfg.  No
// connection is made until the first query or ping.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = util.FormatAddr(cfg.Host, cfg.Port)
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Name
	mc.Timeout = 10 * time.Second

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql config: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Store runs the log queries.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Fetch returns every row dated within r, bounds included.
func (s *Store) Fetch(ctx context.Context, r Range) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, rangeQuery, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query log_1: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Date, &row.Time, &row.Message, &row.Program); err != nil {
			return nil, fmt.Errorf("scan log_1 row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read log_1: %w", err)
	}
	return out, nil
}
