package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"gorm duplicated", gorm.ErrDuplicatedKey, true},
		{"wrapped conflict", fmt.Errorf("insert: %w", ErrConflict), true},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: chat_rooms.user_id, chat_rooms.date (2067)"), true},
		{"pg message", errors.New(`ERROR: duplicate key value violates unique constraint "idx_chat_rooms_user_date"`), true},
		{"connection", errors.New("connection reset by peer"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyError(tc.err))
		})
	}
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
	assert.ErrorIs(t, TranslateError(gorm.ErrRecordNotFound), ErrNotFound)

	err := TranslateError(&pgconn.PgError{Code: "23505", Message: "dup"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "dup")

	plain := errors.New("boom")
	assert.Equal(t, plain, TranslateError(plain))
}
