package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a unique-constraint violation.
// Handlers translate these to a 400 "Duplicate field value" response instead
// of leaking driver errors.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == mysqlDuplicateEntry
	}
	// sqlite (tests) reports unique violations as plain errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
