package services

import (
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Error messages below are returned verbatim to API clients.
var (
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrTokenMissing       = errors.New("Unauthorized: Missing token")
	ErrTokenInvalid       = errors.New("Forbidden: Invalid token")
	ErrNoSubject          = errors.New("Unauthorized")

	ErrEmployeeNotFound = errors.New("Employee not found")
	ErrAdminNotFound    = errors.New("Admin not found")
	ErrUsernameExists   = errors.New("Username already exists")
	ErrPositionRequired = errors.New("Position is required")

	ErrTrolleyNumberNotFound      = errors.New("TrolleyNumber not found")
	ErrTrolleyNumberExists        = errors.New("TrolleyNumber must be unique")
	ErrTrolleyNumberRequired      = errors.New("TrolleyNumber is required")
	ErrTrolleyNumberNotAcceptable = errors.New("TrolleyNumber is not acceptable")
	ErrAlreadyOutside             = errors.New("Trolley with this number is already outside")

	ErrTrolleyNotFound     = errors.New("Trolley not found")
	ErrTrolleysNotFound    = errors.New("Trolleys not found for the given trolleyNumber")
	ErrBalanceNumberExists = errors.New("BalanceNumber must be unique")

	ErrInvalidDate = errors.New("Invalid date, expected YYYY-MM-DD")
)

// isDuplicateKey reports whether err is a unique-constraint violation.
// TranslateError covers the drivers gorm knows about; the MySQL check is a
// fallback for handles opened without it.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
