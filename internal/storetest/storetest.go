// Package storetest opens throwaway in-memory databases for tests.
package storetest

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/config"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
)

// Logger returns a logger that discards its output.
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Open returns a bootstrapped in-memory SQLite store closed at test cleanup.
func Open(t testing.TB) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Bootstrap(ctx, Logger()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}
