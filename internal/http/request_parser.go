// This file implements parsing and validation of query strings and JSON
// request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxHorizonDays caps projection requests at roughly ten years.
const MaxHorizonDays = 3660

const maxBodyBytes = 1 << 16

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ExportBody is the payload of POST /api/exports.
type ExportBody struct {
	Report      string `json:"report" validate:"required"`
	HorizonDays int    `json:"horizon_days" validate:"min=0,max=3660"`
}

// ParseDays reads the days query parameter. Absent means zero, which selects
// the server default.
func ParseDays(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("days"))
	if v == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("days must be a whole number, got %q", v)
	}
	if days < 1 || days > MaxHorizonDays {
		return 0, fmt.Errorf("days must be between 1 and %d, got %d", MaxHorizonDays, days)
	}
	return days, nil
}

// ParseFormat reads the format query parameter, defaulting to JSON.
func ParseFormat(query url.Values) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(query.Get("format"))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q", f)
	}
}

// DecodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields, and validates the result.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
