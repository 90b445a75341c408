package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dtapp/campus_core/internal/service"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyCounterError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, conflict: true},
		{name: "deadlock detected", err: &pgconn.PgError{Code: "40P01"}, conflict: true},
		{name: "concurrent first insert", err: &pgconn.PgError{Code: "23505"}, conflict: true},
		{name: "wrapped serialization failure", err: fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), conflict: true},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, conflict: false},
		{name: "connection lost", err: errors.New("unexpected EOF"), conflict: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyCounterError("commit slot counter", tt.err)

			assert.Equal(t, tt.conflict, errors.Is(err, service.ErrCounterConflict))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "commit slot counter")
		})
	}
}
