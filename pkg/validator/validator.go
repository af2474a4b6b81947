package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var netIDPattern = regexp.MustCompile(`^[a-z]{2,3}[0-9]{1,4}$`)

var (
	validate    *validator.Validate
	once        sync.Once
	emailDomain = "cornell.edu"
	domainMu    sync.RWMutex
)

// SetInstitutionDomain configures the domain enforced by the
// institution_email tag. It is set once at startup from config.
func SetInstitutionDomain(domain string) {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
	if domain == "" {
		return
	}
	domainMu.Lock()
	emailDomain = domain
	domainMu.Unlock()
}

// InstitutionDomain returns the configured institutional email domain.
func InstitutionDomain() string {
	domainMu.RLock()
	defer domainMu.RUnlock()
	return emailDomain
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("netid", func(fl validator.FieldLevel) bool {
			return netIDPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("institution_email", func(fl validator.FieldLevel) bool {
			return strings.HasSuffix(strings.ToLower(fl.Field().String()), "@"+InstitutionDomain())
		})
		_ = validate.RegisterValidation("single_line", func(fl validator.FieldLevel) bool {
			return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
		})
		_ = validate.RegisterValidation("class_standing", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "upperclassman", "lowerclassman":
				return true
			}
			return false
		})
	})
	return validate
}

// Struct validates s and returns an error carrying only the first failing
// field's message, or nil.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	return errors.New(First(err))
}

// First returns the message of the first failing field.
func First(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return getFieldErrorMessage(validationErrors[0])
	}
	return err.Error()
}

// FormatValidationError joins every failing field's message.
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email address"
	case "institution_email":
		return fmt.Sprintf("Must be a @%s email", InstitutionDomain())
	case "netid":
		return "Invalid NetID format"
	case "class_standing":
		return "Class standing must be upperclassman or lowerclassman"
	case "single_line":
		return fmt.Sprintf("%s cannot contain line breaks or control characters", field)
	case "url":
		return "Invalid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Email":         "Email",
		"Password":      "Password",
		"NetID":         "NetID",
		"FullName":      "Name",
		"Major":         "Major",
		"GradYear":      "Graduation year",
		"GPA":           "GPA",
		"ResumeURL":     "Resume URL",
		"ClassStanding": "Class standing",
		"Status":        "Status",
		"Body":          "Message",
		"Identifier":    "NetID or email",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
