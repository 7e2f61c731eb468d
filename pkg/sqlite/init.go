package sqlite

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

// The memory store is written to concurrently by every transport session, so
// the driver is registered with a connect hook that puts each connection into
// WAL mode and gives writers a 30s busy timeout instead of failing fast on
// SQLITE_BUSY.
func init() {
	sql.Register("sqlite3_falcon", &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			pragmas := []string{
				"PRAGMA busy_timeout = 30000",
				"PRAGMA journal_mode = WAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.Exec(p, nil); err != nil {
					return err
				}
			}
			return nil
		},
	})
}
