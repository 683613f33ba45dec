// Package repo holds the pieces shared by read-only repositories.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Base carries the connection for repositories that never join a caller's
// transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds ctx to the connection; a nil ctx returns it unchanged.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Within limits column to the half-open window [from, to). Rows whose column
// is NULL never match.
func Within(column string, from, to time.Time) func(*gorm.DB) *gorm.DB {
	clause := fmt.Sprintf("%[1]s IS NOT NULL AND %[1]s >= ? AND %[1]s < ?", column)
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(clause, from, to)
	}
}
