// Package sqlerr specifically handles database driver errors.
//
// It parses SQL Server error numbers from the driver and
// converts them into user-friendly messages (e.g., converting
// a "foreign key violation" into a "Bad Request" error)
package sqlerr

import "fmt"

// Code is a driver-independent classification of a database error.
type Code string

const (
	Other               Code = "OTHER"
	UniqueViolation     Code = "UNIQUE_VIOLATION"
	ForeignKeyViolation Code = "FOREIGN_KEY_VIOLATION"
	NotNullViolation    Code = "NOT_NULL_VIOLATION"
	CheckViolation      Code = "CHECK_VIOLATION"
	StringTruncation    Code = "STRING_TRUNCATION"
	InvalidObject       Code = "INVALID_OBJECT"
	ConversionFailed    Code = "CONVERSION_FAILED"
	Deadlock            Code = "DEADLOCK"
)

// Severity mirrors the SQL Server severity class ranges.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityError Severity = "ERROR"
	SeverityFatal Severity = "FATAL"
)

// Error is a classified database error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   int32
	Message        string
	TableName      string
	ColumnName     string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Code, e.Message, e.DatabaseCode)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode classifies a SQL Server error number. 547 covers both foreign key
// and check constraints; message decides which.
func MapCode(number int32, message string) Code {
	switch number {
	case 2627, 2601:
		return UniqueViolation
	case 547:
		if containsFold(message, "CHECK constraint") {
			return CheckViolation
		}
		return ForeignKeyViolation
	case 515:
		return NotNullViolation
	case 8152, 2628:
		return StringTruncation
	case 208, 207:
		return InvalidObject
	case 241, 242, 245, 8114, 8115:
		return ConversionFailed
	case 1205:
		return Deadlock
	default:
		return Other
	}
}

// MapSeverity maps the SQL Server severity class.
func MapSeverity(class uint8) Severity {
	switch {
	case class <= 10:
		return SeverityInfo
	case class <= 19:
		return SeverityError
	default:
		return SeverityFatal
	}
}
