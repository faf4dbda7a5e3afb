// Package audit is an optional MySQL-backed record of logins and
// logouts, adapted from the teacher's account-persistence layer
// (internal/database) into a connection audit trail: this package
// stores no chat content, only who connected and when, in line with
// the non-goal of persisting message history.
package audit

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sink receives login/logout notifications from internal/server.
type Sink interface {
	RecordLogin(username, remoteAddr string)
	RecordLogout(username string, err error)
}

// Noop is a Sink that discards everything, used when no audit DSN is
// configured.
type Noop struct{}

func (Noop) RecordLogin(string, string) {}
func (Noop) RecordLogout(string, error) {}

// MySQLSink persists login/logout events to a `connection_audit` table.
// Failures are logged but never propagated: an unreachable audit
// database must not take the chat server down with it.
type MySQLSink struct {
	db  *sql.DB
	log *logrus.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS connection_audit (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	username    VARCHAR(12) NOT NULL,
	event       VARCHAR(16) NOT NULL,
	detail      VARCHAR(255) NOT NULL DEFAULT '',
	occurred_at DATETIME NOT NULL
)`

// Open connects to dsn (a go-sql-driver/mysql DSN) and ensures the audit
// table exists.
func Open(dsn string, log *logrus.Logger) (*MySQLSink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "audit: open")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "audit: ping")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "audit: create table")
	}

	return &MySQLSink{db: db, log: log}, nil
}

// Close releases the underlying database connection pool.
func (s *MySQLSink) Close() error {
	return s.db.Close()
}

// RecordLogin inserts a "login" row for username.
func (s *MySQLSink) RecordLogin(username, remoteAddr string) {
	s.insert(username, "login", remoteAddr)
}

// RecordLogout inserts a "logout" row for username. err's message, if
// any, is stored as the event detail.
func (s *MySQLSink) RecordLogout(username string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.insert(username, "logout", detail)
}

func (s *MySQLSink) insert(username, event, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO connection_audit (username, event, detail, occurred_at) VALUES (?, ?, ?, ?)",
		username, event, detail, time.Now())
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"username": username, "event": event}).
			Warn("audit: failed to record event")
	}
}
