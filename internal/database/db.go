// Package database owns the MySQL connection for the booking service.
package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

const (
    maxOpenConns = 25
    maxIdleConns = 10
    connLifetime = 30 * time.Minute
    pingTimeout  = 5 * time.Second
)

// Open connects to MySQL, configures the pool and verifies the connection
// with a bounded ping.  parseTime and loc=UTC matter here: appointment
// dates, ticket timestamps and the modification window all assume UTC
// time.Time values coming out of the driver.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    cred := user
    if pass != "" {
        cred = user + ":" + pass
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC", cred, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, fmt.Errorf("open mysql: %w", err)
    }
    db.SetMaxOpenConns(maxOpenConns)
    db.SetMaxIdleConns(maxIdleConns)
    db.SetConnMaxLifetime(connLifetime)

    ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, fmt.Errorf("ping mysql: %w", err)
    }
    return db, nil
}
