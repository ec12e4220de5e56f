package sqlerr

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/grupotelles/comercial/internal/errs"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTP(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	return httpErr
}

func TestHandleUniqueViolation(t *testing.T) {
	err := errors.Wrap(mssql.Error{
		Number:  2627,
		Class:   14,
		Message: "Violation of PRIMARY KEY constraint 'PK_Pedidos'. Cannot insert duplicate key in object 'dbo.Pedidos'. The duplicate key value is (1).",
	}, "exec ste")

	httpErr := asHTTP(t, HandleError(err))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "PEDIDO_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "A Pedido with this identifier already exists", httpErr.Message)
	assert.Equal(t, UniqueViolation, ErrCode(err))
}

func TestHandleNotNullViolation(t *testing.T) {
	err := mssql.Error{
		Number:  515,
		Class:   16,
		Message: "Cannot insert the value NULL into column 'Observacao', table 'DATASULSTE.dbo.ObservacoesComerciais'; column does not allow nulls. INSERT fails.",
	}

	httpErr := asHTTP(t, HandleError(err))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "observacao", httpErr.Errors[0].Field)
	assert.Equal(t, "OBSERVACOESCOMERCIAI_REQUIRED", httpErr.Code)
}

func TestMapCodeConstraintKinds(t *testing.T) {
	assert.Equal(t, ForeignKeyViolation, MapCode(547, `The INSERT statement conflicted with the FOREIGN KEY constraint "FK_x".`))
	assert.Equal(t, CheckViolation, MapCode(547, `The INSERT statement conflicted with the CHECK constraint "CK_x".`))
	assert.Equal(t, InvalidObject, MapCode(208, "Invalid object name 'VW_X'."))
	assert.Equal(t, Other, MapCode(50000, "custom"))
}

func TestConvertExtractsNames(t *testing.T) {
	sqlErr := ConvertMSSQLError(mssql.Error{
		Number:  547,
		Class:   16,
		Message: `The INSERT statement conflicted with the FOREIGN KEY constraint "FK_Obs_Pedido". The conflict occurred in database "STE", table "dbo.Pedidos", column 'Id'.`,
	})
	assert.Equal(t, "Pedidos", sqlErr.TableName)
	assert.Equal(t, "Id", sqlErr.ColumnName)
	assert.Equal(t, "FK_Obs_Pedido", sqlErr.ConstraintName)
	assert.Equal(t, SeverityError, sqlErr.Severity)
}

func TestHandleOtherErrors(t *testing.T) {
	httpErr := asHTTP(t, HandleError(mssql.Error{Number: 208, Message: "Invalid object name 'X'."}))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)

	httpErr = asHTTP(t, HandleError(errors.Wrap(context.DeadlineExceeded, "query ste")))
	assert.Equal(t, http.StatusGatewayTimeout, httpErr.Status)

	httpErr = asHTTP(t, HandleError(sql.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)

	original := errs.NewForbiddenError("no", true)
	assert.Same(t, original, HandleError(original))
}
