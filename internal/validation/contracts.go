package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce    sync.Once
	structValidator *validator.Validate
)

// recordValidator reports field names by their json tag so violations match
// the column names of the source files.
func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return structValidator
}

// ValidateNonEmpty fails with EmptyDatasetError when rows is empty.
func ValidateNonEmpty[T any](rows []T, dataset string) error {
	if len(rows) == 0 {
		return &EmptyDatasetError{Dataset: dataset}
	}
	return nil
}

// ValidateRecords checks every row against the validate tags of its type and
// reports all violations at once.
func ValidateRecords[T any](rows []T, dataset string) error {
	v := recordValidator()
	var violations []string
	for i := range rows {
		err := v.Struct(rows[i])
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &SchemaError{Dataset: dataset, Violations: []string{err.Error()}, Cause: err}
		}
		for _, fe := range fieldErrs {
			violations = append(violations, fmt.Sprintf("row %d: field '%s' failed '%s' in %s", i, fe.Field(), constraint(fe), dataset))
		}
	}
	if len(violations) > 0 {
		return &SchemaError{Dataset: dataset, Violations: violations}
	}
	return nil
}

func constraint(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// ValidatePrimaryKey requires key(row) to be non-empty and unique across rows.
func ValidatePrimaryKey[T any](rows []T, dataset, keyName string, key func(T) string) error {
	seen := make(map[string]int, len(rows))
	var missing []int
	var duplicates []string
	for i, row := range rows {
		k := key(row)
		if k == "" {
			missing = append(missing, i)
			continue
		}
		seen[k]++
		if seen[k] == 2 {
			duplicates = append(duplicates, k)
		}
	}
	if len(missing) > 0 || len(duplicates) > 0 {
		return &PrimaryKeyError{Dataset: dataset, Key: keyName, Duplicates: duplicates, Missing: missing}
	}
	return nil
}
