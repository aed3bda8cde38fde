// Package validate checks and normalizes request input. Every check returns
// the first problem found as a *FieldError whose message is client facing.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Skotchmaster/course_market/internal/models"
)

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func fail(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Body is a decoded JSON object. Absent keys read as nil.
type Body map[string]any

func (b Body) Get(key string) any {
	if b == nil {
		return nil
	}
	return b[key]
}

// ParamNumber converts a path parameter to a number, or nil when it is not one.
func ParamNumber(s string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

var (
	lettersRe      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	alnumRe        = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alnumSpaceRe   = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)
	emailRe        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
	phoneShapeRe   = regexp.MustCompile(`^[+]*[(]?[0-9]{1,4}[)]?[-\s./0-9]*$`)
	nonDigitRe     = regexp.MustCompile(`[^0-9]`)
	objectIDRe     = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	slugRe         = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	specialCharsRe = regexp.MustCompile(`[@$!%*?&]`)
)

func str(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fail(field, "%s must be a string", field)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fail(field, "%s is required", field)
	}
	return s, nil
}

func num(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fail(field, "%s must be a number", field)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func Name(v any) (string, error) {
	s, err := str("Name", v)
	if err != nil {
		return "", err
	}
	switch {
	case len(s) < 3:
		return "", fail("Name", "Name must be at least 3 characters")
	case len(s) > 40:
		return "", fail("Name", "Name must be less than 40 characters")
	case !lettersRe.MatchString(s):
		return "", fail("Name", "Name must contain only letters")
	}
	return titleCase(s), nil
}

func Username(v any) (string, error) {
	s, err := str("Username", v)
	if err != nil {
		return "", err
	}
	switch {
	case len(s) < 3:
		return "", fail("Username", "Username must be at least 3 characters")
	case len(s) > 20:
		return "", fail("Username", "Username must be less than 20 characters")
	case !alnumRe.MatchString(s):
		return "", fail("Username", "Username must contain only letters and numbers")
	}
	return strings.ToLower(s), nil
}

func Email(v any) (string, error) {
	s, err := str("Email", v)
	if err != nil {
		return "", err
	}
	if len(s) > 50 {
		return "", fail("Email", "Email must be less than 50 characters")
	}
	if !emailRe.MatchString(s) {
		return "", fail("Email", "Invalid email address")
	}
	return strings.ToLower(s), nil
}

func Password(field string, v any) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	switch {
	case len(s) < 8:
		return "", fail(field, "%s must be at least 8 characters", field)
	case len(s) > 32:
		return "", fail(field, "%s must be less than 32 characters", field)
	case !strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"):
		return "", fail(field, "%s must contain at least one uppercase letter", field)
	case !strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz"):
		return "", fail(field, "%s must contain at least one lowercase letter", field)
	case !strings.ContainsAny(s, "0123456789"):
		return "", fail(field, "%s must contain at least one number", field)
	case !specialCharsRe.MatchString(s):
		return "", fail(field, "%s must contain at least one special character (@, $, !, %%, *, ?, or &)", field)
	}
	return s, nil
}

// Phone accepts US and Canadian numbers and returns the 10 digit form.
func Phone(v any) (string, error) {
	s, err := str("Phone number", v)
	if err != nil {
		return "", err
	}
	if !phoneShapeRe.MatchString(s) {
		return "", fail("Phone number", "Invalid phone number format")
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	switch {
	case len(digits) == 10:
		return digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:], nil
	}
	return "", fail("Phone number", "Phone number must be a valid US or Canadian 10-digit number")
}

func ID(field string, v any) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	if !objectIDRe.MatchString(s) {
		return "", fail(field, "%s is invalid", field)
	}
	return strings.ToLower(s), nil
}

// Title validates category names and course or session titles.
func Title(field string, v any) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	if len(s) > 50 {
		return "", fail(field, "%s must be less than 50 characters", field)
	}
	if !lettersRe.MatchString(s) {
		return "", fail(field, "%s must contain only letters and spaces", field)
	}
	return titleCase(s), nil
}

func Href(field string, v any) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	if len(s) > 50 {
		return "", fail(field, "%s must be less than 50 characters", field)
	}
	if !alnumSpaceRe.MatchString(s) {
		return "", fail(field, "%s must contain only letters and numbers and spaces", field)
	}
	return strings.ToLower(strings.Join(strings.Fields(s), "-")), nil
}

func Description(field string, v any, max, min int) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	if len(s) < min {
		return "", fail(field, "%s must be at least %d characters", field, min)
	}
	if len(s) > max {
		return "", fail(field, "%s must be less than %d characters", field, max)
	}
	return s, nil
}

func FileName(field string, v any) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	if len(s) > 255 {
		return "", fail(field, "%s must be less than 255 characters", field)
	}
	if !alnumSpaceRe.MatchString(s) {
		return "", fail(field, "%s must contain only letters and numbers and spaces", field)
	}
	return strings.ToLower(strings.Join(strings.Fields(s), "-")), nil
}

const (
	KindImage = "image"
	KindVideo = "video"
)

func FileType(field string, v any, kind string) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	s = strings.ToLower(s)
	if s != kind {
		return "", fail(field, "%s must be a valid type of %s", field, strings.ToUpper(kind))
	}
	return s, nil
}

func Slug(field string, v any) (string, error) {
	s, err := str(field, v)
	if err != nil {
		return "", err
	}
	s = strings.ToLower(s)
	if len(s) > 100 {
		return "", fail(field, "%s must be less than 100 characters", field)
	}
	if !slugRe.MatchString(s) {
		return "", fail(field, "%s must contain only lowercase letters, numbers and hyphens", field)
	}
	return s, nil
}

func Price(field string, v any, max float64) (float64, error) {
	n, err := num(field, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fail(field, "%s cannot be a negative number", field)
	}
	if n > max {
		return 0, fail(field, "%s cannot be greater than %v", field, max)
	}
	return n, nil
}

func Discount(field string, v any) (float64, error) {
	n, err := num(field, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fail(field, "%s cannot be a negative number", field)
	}
	if n > 100 {
		return 0, fail(field, "%s cannot be greater than 100", field)
	}
	return n, nil
}

// Duration is expressed in seconds.
func Duration(field string, v any) (int, error) {
	n, err := num(field, v)
	if err != nil {
		return 0, err
	}
	if n < 60 {
		return 0, fail(field, "%s cannot be less than 60 seconds", field)
	}
	if n > 10800 {
		return 0, fail(field, "%s cannot be greater than 3 hours", field)
	}
	return int(math.Round(n)), nil
}

func Rate(field string, v any) (int, error) {
	n, err := num(field, v)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, fail(field, "Rate must be an integer")
	}
	if n < 1 {
		return 0, fail(field, "%s cannot be less than 1", field)
	}
	if n > 5 {
		return 0, fail(field, "%s cannot be greater than 5", field)
	}
	return int(n), nil
}

func PositiveNumber(field string, v any) (int, error) {
	n, err := num(field, v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fail(field, "%s cannot be a negative or zero number", field)
	}
	return int(n), nil
}

func Bool(field string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fail(field, "%s must be a boolean", field)
	}
	return b, nil
}

func Role(v any) (models.Role, error) {
	s, err := str("Role", v)
	if err != nil {
		return "", err
	}
	r := models.Role(strings.ToUpper(s))
	switch r {
	case models.RoleAdmin, models.RoleTeacher, models.RoleUser:
		return r, nil
	}
	return "", fail("Role", "Role must be admin, teacher, or user")
}

// Optional returns "" without error when v is absent.
func Optional(v any, check func(any) (string, error)) (string, error) {
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return "", nil
	}
	return check(v)
}
