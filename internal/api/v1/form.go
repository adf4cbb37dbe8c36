package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/edu-center/site-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

var errBodyTooLarge = errors.New("request body too large")

// formFields is a flat view of a request body that may arrive as JSON,
// multipart or urlencoded form.
type formFields struct {
	values map[string]string
	errs   []models.FieldError
}

// readFields parses the body according to its Content-Type.
func readFields(r *http.Request) (*formFields, error) {
	f := &formFields{values: map[string]string{}}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, wrapBodyErr(err)
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				f.values[k] = v[0]
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, wrapBodyErr(err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				f.values[k] = v[0]
			}
		}
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, wrapBodyErr(err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return f, nil
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		for k, v := range raw {
			s, ok := rawToString(v)
			if ok {
				f.values[k] = s
			}
		}
	}
	return f, nil
}

func wrapBodyErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge) ||
		strings.Contains(err.Error(), "request body too large") {
		return errBodyTooLarge
	}
	return err
}

// rawToString flattens a JSON scalar; null is treated as absent.
func rawToString(v json.RawMessage) (string, bool) {
	t := bytes.TrimSpace(v)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return "", false
	}
	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(t), true
}

func (f *formFields) Has(key string) bool {
	v, ok := f.values[key]
	return ok && strings.TrimSpace(v) != ""
}

// String returns the trimmed value, "" when absent.
func (f *formFields) String(key string) string {
	return strings.TrimSpace(f.values[key])
}

// Raw returns the value as sent; used for secrets that must not be trimmed.
func (f *formFields) Raw(key string) string {
	return f.values[key]
}

// Bool returns nil when the field is absent and records an error when it is
// not a boolean.
func (f *formFields) Bool(key string) *bool {
	if !f.Has(key) {
		return nil
	}
	switch strings.ToLower(f.String(key)) {
	case "true", "1", "on", "yes":
		b := true
		return &b
	case "false", "0", "off", "no":
		b := false
		return &b
	}
	f.errs = append(f.errs, models.FieldError{Field: key, Message: key + " must be a boolean"})
	return nil
}

func (f *formFields) Int(key string) *int {
	if !f.Has(key) {
		return nil
	}
	n, err := strconv.Atoi(f.String(key))
	if err != nil {
		f.errs = append(f.errs, models.FieldError{Field: key, Message: key + " must be an integer"})
		return nil
	}
	return &n
}

// Time accepts RFC3339 or a plain YYYY-MM-DD date.
func (f *formFields) Time(key string) *time.Time {
	if !f.Has(key) {
		return nil
	}
	s := f.String(key)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	f.errs = append(f.errs, models.FieldError{Field: key, Message: key + " must be a date (YYYY-MM-DD or RFC3339)"})
	return nil
}

func (f *formFields) Errors() []models.FieldError {
	return f.errs
}

/* ------------------ validation ------------------ */

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput runs struct validation and returns user-facing field errors.
func validateInput(in interface{}) []models.FieldError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []models.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]models.FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, models.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "email":
		return name + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return name + " is invalid"
}

// collectErrors merges parse errors and validation errors.
func collectErrors(f *formFields, in interface{}) []models.FieldError {
	errs := append([]models.FieldError{}, f.Errors()...)
	return append(errs, validateInput(in)...)
}
