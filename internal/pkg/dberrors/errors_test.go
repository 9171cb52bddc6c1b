package dberrors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "assignment_submissions_assignment_id_student_id_key"})

	assert.True(t, IsDuplicateConstraintError(err, "assignment_submissions_assignment_id_student_id_key"))
	assert.False(t, IsDuplicateConstraintError(err, "other_key"))
	assert.False(t, IsDuplicateConstraintError(fmt.Errorf("plain"), "other_key"))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("find: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(fmt.Errorf("find")))
}
