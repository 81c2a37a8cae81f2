package rest

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
	"unicode"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for an empty tag
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordError(fl.Field().String()) == ""
	})
	return v
}

// passwordError returns the complaint about p, or "" when p is acceptable.
func passwordError(p string) string {
	if len(p) < 8 {
		return "password must be at least 8 characters"
	}
	if len(p) > auth.MaxPasswordBytes {
		return fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return "password must contain at least 1 letter and 1 number"
	}
	return ""
}

func invalid(msg string) error {
	return common.NewError(common.ErrorValidation, msg)
}

// validationError flattens validator output into one client message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return invalid(strings.Join(msgs, ", "))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", name)
	case "email":
		return fmt.Sprintf("%q must be a valid email", name)
	case "uuid":
		return fmt.Sprintf("%q must be a valid GUID", name)
	case "number":
		return fmt.Sprintf("%q must be a number", name)
	case "boolean":
		return fmt.Sprintf("%q must be a boolean", name)
	case "password":
		s, _ := fe.Value().(string)
		return passwordError(s)
	}
	return fmt.Sprintf("%q is invalid", name)
}

// decodeBody reads a JSON object into dst, rejecting unknown fields, and
// validates it. An empty body decodes as an empty object.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return invalid(field + " is not allowed")
		}
		return invalid("invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// pathID returns the URL parameter name, which must be a UUID.
func (s *Server) pathID(r *http.Request, name string) (string, error) {
	id := urlParam(r, name)
	if err := s.validate.Var(id, "required,uuid"); err != nil {
		return "", invalid(fmt.Sprintf("%q must be a valid GUID", name))
	}
	return id, nil
}

// checkQuery rejects keys outside allowed.
func checkQuery(q url.Values, allowed ...string) error {
	for key := range q {
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return invalid(fmt.Sprintf("%q is not allowed", key))
		}
	}
	return nil
}

// listOptions holds the shared listing query keys.
type listOptions struct {
	SortBy string `json:"sortBy"`
	Limit  string `json:"limit" validate:"omitempty,number"`
	Page   string `json:"page" validate:"omitempty,number"`
}

// options parses the validated limit and page. Values that overflow int or
// a limit above pagination.MaxLimit are rejected.
func (o listOptions) options() (pagination.Options, error) {
	limit, err := parseCount("limit", o.Limit)
	if err != nil {
		return pagination.Options{}, err
	}
	if limit > pagination.MaxLimit {
		return pagination.Options{}, invalid(fmt.Sprintf("%q must be less than or equal to %d", "limit", pagination.MaxLimit))
	}
	page, err := parseCount("page", o.Page)
	if err != nil {
		return pagination.Options{}, err
	}
	return pagination.Options{SortBy: o.SortBy, Limit: limit, Page: page}, nil
}

func parseCount(name, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(fmt.Sprintf("%q must be a safe number", name))
	}
	return n, nil
}

func optional(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
