package validate

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const maxBody = 64 << 10

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go field names
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// DecodeJSON strictly decodes a request body; unknown fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is empty")
		}
		return domain.ErrValidationMeta("invalid json body", map[string]string{"body": err.Error()})
	}
	return nil
}

// DecodeLenient decodes tracking beacons, which may carry fields this
// service does not know about.
func DecodeLenient(r *http.Request, dst any) error {
	if err := render.DecodeJSON(io.LimitReader(r.Body, maxBody), dst); err != nil {
		return domain.ErrValidationMeta("invalid json body", map[string]string{"body": err.Error()})
	}
	return nil
}

// Struct runs validator tags on s and reports failures per json field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.ErrValidation(err.Error())
	}
	meta := make(map[string]string, len(ve))
	for _, fe := range ve {
		meta[fe.Field()] = fieldMessage(fe)
	}
	return domain.ErrValidationMeta("invalid request", meta)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// QueryInt parses an optional integer query parameter; absent yields 0.
func QueryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrValidationMeta("invalid query parameter", map[string]string{key: "must be an integer"})
	}
	return n, nil
}

// QueryInt64Ptr parses an optional positive id query parameter.
func QueryInt64Ptr(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return nil, domain.ErrValidationMeta("invalid query parameter", map[string]string{key: "must be a positive integer"})
	}
	return &n, nil
}

func PathInt64(r *http.Request, key string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.ErrValidationMeta("invalid path parameter", map[string]string{key: "must be a positive integer"})
	}
	return n, nil
}

func PathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, domain.ErrValidationMeta("invalid path parameter", map[string]string{key: "must be a uuid"})
	}
	return id, nil
}
