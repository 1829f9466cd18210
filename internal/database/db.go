package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options describes the MySQL connection.
type Options struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// Open connects to MySQL and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", driverConfig(o).FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func driverConfig(o Options) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = o.User
	mc.Passwd = o.Pass
	mc.Net = "tcp"
	mc.Addr = o.Host + ":" + o.Port
	mc.DBName = o.Name
	// parseTime -> DATETIME as time.Time; UTC keeps refresh expiry comparisons consistent
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	// RowsAffected counts matched rows, so a same-value UPDATE is not read as a missing row
	mc.ClientFoundRows = true
	return mc
}
