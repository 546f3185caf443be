package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout      = "2006-01-02"
	maxRequestBytes = 1 << 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody reads a JSON body into dst and runs struct validation. A non-nil
// map reports field problems; a non-nil error means the body was unreadable.
func decodeBody(r *http.Request, dst any) (map[string]string, error) {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errBadRequestBody
		}
		return nil, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return validationFields(validate.Struct(dst)), nil
}

func validationFields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "datetime":
		return fe.Field() + " must match " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email address"
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

// parseDate reads a YYYY-MM-DD value as midnight in loc.
func parseDate(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
