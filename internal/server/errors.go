package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/jobrec-pipeline/internal/labeling"
	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/sampling"
	"github.com/jonathan/jobrec-pipeline/internal/validation"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunInProgress is returned when a run is requested while another is executing.
type ErrRunInProgress struct{}

func (e *ErrRunInProgress) Error() string {
	return "a pipeline run is already in progress"
}

// HTTPStatus returns the appropriate HTTP status code for an error. Errors
// caused by the request map to 400, errors caused by the input datasets to
// 422, and everything else to 500.
func HTTPStatus(err error) int {
	var (
		reqErr      *ErrValidation
		busyErr     *ErrRunInProgress
		policyErr   *policy.LoadError
		dataErr     *validation.Error
		emptyErr    *validation.EmptyDatasetError
		schemaErr   *validation.SchemaError
		pkErr       *validation.PrimaryKeyError
		refErr      *validation.ReferentialIntegrityError
		noPosErr    *labeling.NoPositivesError
		samplingErr *sampling.SamplingInputError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &policyErr):
		return http.StatusBadRequest
	case errors.As(err, &busyErr):
		return http.StatusConflict
	case errors.As(err, &dataErr), errors.As(err, &emptyErr), errors.As(err, &schemaErr),
		errors.As(err, &pkErr), errors.As(err, &refErr), errors.As(err, &noPosErr),
		errors.As(err, &samplingErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
