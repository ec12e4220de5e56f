package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grupotelles/comercial/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type periodRequest struct {
	StartDate string `json:"startDate" form:"startDate" validate:"required,isodate"`
	EndDate   string `json:"endDate" form:"endDate" validate:"required,isodate"`
	NF        string `json:"nf" form:"nf" validate:"omitempty,digitsonly"`
}

func (r *periodRequest) Validate() error {
	return Struct(r)
}

type customRequest struct{}

func (r *customRequest) Validate() error {
	return CustomValidationErrors{{Field: "periodo", Message: "end before start"}}
}

func newContext(method, contentType, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	return e.NewContext(req, httptest.NewRecorder())
}

func asHTTP(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	return httpErr
}

func TestBindAndValidateForm(t *testing.T) {
	c := newContext(http.MethodPost, echo.MIMEApplicationForm, "startDate=2025-01-01&endDate=2025-01-31")

	req := &periodRequest{}
	require.NoError(t, BindAndValidate(c, req))
	assert.Equal(t, "2025-01-31", req.EndDate)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	c := newContext(http.MethodPost, echo.MIMEApplicationJSON, `{"startDate":"01/01/2025","nf":"12a"}`)

	httpErr := asHTTP(t, BindAndValidate(c, &periodRequest{}))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.True(t, httpErr.Override)

	got := map[string]string{}
	for _, fe := range httpErr.Errors {
		got[fe.Field] = fe.Error
	}
	assert.Equal(t, "must be a date in YYYY-MM-DD format", got["startdate"])
	assert.Equal(t, "is required", got["enddate"])
	assert.Equal(t, "must contain only digits", got["nf"])
}

func TestBindAndValidateMalformedJSON(t *testing.T) {
	c := newContext(http.MethodPost, echo.MIMEApplicationJSON, `{"startDate":`)

	httpErr := asHTTP(t, BindAndValidate(c, &periodRequest{}))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
}

func TestCustomValidationErrors(t *testing.T) {
	c := newContext(http.MethodPost, echo.MIMEApplicationJSON, `{}`)

	httpErr := asHTTP(t, BindAndValidate(c, &customRequest{}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "periodo", httpErr.Errors[0].Field)
}
