package sqlerr

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/grupotelles/comercial/internal/errs"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	tablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`object '([^']+)'`),
		regexp.MustCompile(`table "([^"]+)"`),
		regexp.MustCompile(`table '([^']+)'`),
	}
	columnPattern     = regexp.MustCompile(`column '([^']+)'`)
	constraintPattern = regexp.MustCompile(`constraint ["']([^"']+)["']`)
)

// ErrCode returns the classification of err, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return MapCode(msErr.Number, msErr.Message)
	}
	return Other
}

// ConvertMSSQLError turns a driver error into a classified Error, pulling
// table, column and constraint names out of the server message.
func ConvertMSSQLError(src mssql.Error) *Error {
	return &Error{
		Code:           MapCode(src.Number, src.Message),
		Severity:       MapSeverity(src.Class),
		DatabaseCode:   src.Number,
		Message:        src.Message,
		TableName:      extractTable(src.Message),
		ColumnName:     firstMatch(columnPattern, src.Message),
		ConstraintName: firstMatch(constraintPattern, src.Message),
		driverErr:      src,
	}
}

func extractTable(message string) string {
	for _, re := range tablePatterns {
		if name := firstMatch(re, message); name != "" {
			// db.dbo.Table -> Table
			parts := strings.Split(name, ".")
			return strings.Trim(parts[len(parts)-1], "[]")
		}
	}
	return ""
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// generateErrorCode builds codes such as OBSERVACOESCOMERCIAI_ALREADY_EXISTS.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, StringTruncation, ConversionFailed:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)
	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)
	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)
	case CheckViolation:
		return "One or more values do not meet required conditions"
	case StringTruncation:
		return "One or more values are too long"
	case ConversionFailed:
		return "One or more values have an invalid format"
	default:
		return "An error occurred while processing your request"
	}
}

func getEntityName(tableName string) string {
	if tableName == "" {
		return "record"
	}
	entity := tableName
	if strings.HasSuffix(entity, "s") && len(entity) > 1 {
		entity = entity[:len(entity)-1]
	}
	return humanizeText(entity)
}

func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// HandleError maps database errors to HTTP errors. HTTPErrors pass through.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errs.NewGatewayTimeoutError("A consulta excedeu o tempo limite")
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		sqlErr := ConvertMSSQLError(msErr)
		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		userMessage := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			return errs.NewBadRequestError(userMessage, false, &errorCode, nil, nil)
		case UniqueViolation:
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)
		case NotNullViolation:
			fieldErrors := []errs.FieldError{
				{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "is required",
				},
			}
			return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors, nil)
		case CheckViolation, StringTruncation, ConversionFailed:
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)
		default:
			return errs.NewInternalServerError()
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
