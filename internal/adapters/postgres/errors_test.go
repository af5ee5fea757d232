package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pe := &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "subscribers_email_key"}
	wrapped := fmt.Errorf("insert: %w", pe)

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"exact constraint", pe, "subscribers_email_key", true},
		{"wrapped", wrapped, "subscribers_email_key", true},
		{"any constraint", pe, "", true},
		{"other constraint", pe, "subscribers_pkey", false},
		{"other code", &pgconn.PgError{Code: ForeignKeyViolationCode}, "", false},
		{"not a pg error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Errorf("%s: IsUniqueViolation()=%v, want %v", tc.name, got, tc.want)
		}
	}
}
