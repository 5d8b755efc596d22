package utils

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

// IsDuplicateKeyErr reports whether err is a MySQL 1062 duplicate-entry
// error. Unique-column checks race concurrent inserts; the database
// constraint is the source of truth and this is how its verdict surfaces.
func IsDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
