package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAdminEmail    = "admin@localhost.com"
	defaultAdminPassword = "Changeme@1"
)

// Bootstrap creates the application tables and seeds an admin user when the
// users table is empty.
func (s *Store) Bootstrap(ctx context.Context, log logrus.FieldLogger) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SchemaSQL()); err != nil {
		return fmt.Errorf("bootstrap tables: %w", err)
	}
	if err := s.seedAdminUser(ctx, log); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context, log logrus.FieldLogger) error {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := s.Dialect.TimeParam(time.Now())
	pb := s.Dialect.NewParamBuilder()
	stmt := fmt.Sprintf(
		`INSERT INTO users (id, name, email, password, role, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		pb.Add(uuid.NewString()), pb.Add("Admin"), pb.Add(defaultAdminEmail), pb.Add(string(hash)),
		pb.Add("admin"), pb.Add(now), pb.Add(now),
	)
	if _, err := s.DB.ExecContext(ctx, stmt, pb.Params()...); err != nil {
		return s.Dialect.MapError(err)
	}

	log.WithField("email", defaultAdminEmail).
		Warn("default admin user created, change the password immediately")
	return nil
}
