package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Tables are created out of band for the MySQL backend; the expected
// DDL mirrors the sqlite schema with InnoDB FKs:
//
//	CREATE TABLE scans ( ... ) ENGINE=InnoDB;
//	CREATE TABLE vulnerabilities (
//	    ...,
//	    CONSTRAINT fk_vulnerabilities_scan FOREIGN KEY (scan_id)
//	        REFERENCES scans(id) ON DELETE CASCADE
//	) ENGINE=InnoDB;
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}
