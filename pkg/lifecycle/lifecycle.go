// Package lifecycle models the active -> deleted transition shared by every entity.
// Rows are never removed; reads compose Live so tombstones stay invisible.
package lifecycle

import (
	"fmt"

	"gorm.io/gorm"
)

// Lifecycle is implemented by every soft-deletable entity.
type Lifecycle interface {
	IsDeleted() bool
}

// Column is the name of the tombstone column on every table.
const Column = "deleted"

// Live restricts a query to rows that are not tombstoned.
func Live(db *gorm.DB) *gorm.DB {
	return db.Where(Column+" = ?", false)
}

// LiveIn restricts a query to live rows of a qualified table, for joins.
func LiveIn(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(fmt.Sprintf("%s.%s = ?", table, Column), false)
	}
}

// Tombstone is the update applied by every soft delete.
func Tombstone() map[string]any {
	return map[string]any{Column: true}
}
