package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("x")), want: http.StatusInternalServerError},
		{name: "unavailable", err: NewUnavailable(ErrUnavailable, "try later"), want: http.StatusServiceUnavailable},
		{name: "bad gateway", err: NewBadGateway(errors.New("smtp"), "delivery failed"), want: http.StatusBadGateway},
		{name: "business unauthorized", err: NewBusiness("nope", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "business too many", err: NewBusiness("wait", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "invalid input", err: NewInvalidInput(errors.New("v")), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("%w: dial tcp", ErrUnavailable)
	err := NewUnavailable(cause, "service unavailable")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "service unavailable", err.(*Error).Msg())
	assert.Equal(t, "ERROR_CODE_UNAVAILABLE", err.(*Error).Code().String())
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(nil, "code", "must be 6 digits")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, map[string]string{"code": "must be 6 digits"}, gerr.Fields())
	assert.Equal(t, TypeValidation, gerr.Type())

	odd := NewInvalidInput(nil, "code")
	require.ErrorAs(t, odd, &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "wait", NewBusiness("wait", CodeTooManyRequest).Error())
	assert.Equal(t, "boom", NewServer(errors.New("boom")).Error())
	assert.Contains(t, NewServer(nil).(*Error).String(), "type=ERROR_TYPE_SERVER")
	assert.Equal(t, "ERROR_TYPE_BUSINESS", (&Error{errType: TypeBusiness}).Error())
	assert.Equal(t, http.StatusInternalServerError, Code(99).Status())
}
