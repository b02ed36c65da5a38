// Package validation checks request bodies against per-entity schemas before any
// repository call runs, reporting every failed field as an apperr.Detail.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
)

var (
	safeNamePattern   = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.]+$`)
	metricNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-]+$`)
	metricKeyPattern  = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// Validator implements echo.Validator on top of go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// New returns a validator with the custom name, key and color rules registered
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	mustRegister(v, "safename", matches(safeNamePattern))
	mustRegister(v, "metricname", matches(metricNamePattern))
	mustRegister(v, "metrickey", matches(metricKeyPattern))
	mustRegister(v, "metriccolor", func(fl validator.FieldLevel) bool {
		color := fl.Field().String()
		for _, allowed := range model.MetricColors {
			if color == allowed {
				return true
			}
		}
		return false
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func matches(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// Validate checks i and returns an *apperr.Error listing every failed field
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Internal("Failed to validate request", err)
	}

	details := make([]apperr.Detail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, detailFor(fe))
	}
	return apperr.Validation("Validation error", details...)
}

func detailFor(fe validator.FieldError) apperr.Detail {
	root, path := splitNamespace(fe.Namespace())
	return apperr.Detail{
		Path:    path,
		Message: messageFor(root, fe),
		Code:    codeFor(fe.Tag()),
	}
}

// splitNamespace turns "ChurchCreate.metrics[north]" into ("ChurchCreate", "metrics.north")
func splitNamespace(namespace string) (string, string) {
	root, rest, _ := strings.Cut(namespace, ".")
	rest = strings.NewReplacer("[", ".", "]", "").Replace(rest)
	return root, rest
}

func codeFor(tag string) string {
	switch tag {
	case "required":
		return "invalid_type"
	case "min", "gte":
		return "too_small"
	case "max":
		return "too_big"
	case "oneof", "metriccolor":
		return "invalid_enum_value"
	default:
		return "invalid_string"
	}
}

func messageFor(root string, fe validator.FieldError) string {
	field := fe.Field()
	label := labelFor(root, field)

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least %s item is required", fe.Param())
		}
		if fe.Param() == "1" {
			return label + " is required"
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return label + " too long"
	case "gte":
		if strings.HasPrefix(field, "metrics[") {
			return "Metric values must be non-negative"
		}
		return label + " must be a non-negative integer"
	case "safename", "metricname":
		return label + " contains invalid characters"
	case "metrickey":
		return "Metric key must be lowercase letters, numbers, and underscores only"
	case "metriccolor":
		return "Invalid color. Must be one of: " + strings.Join(model.MetricColors, ", ")
	case "uuid":
		return "Invalid ID format"
	case "email":
		return "Invalid email address"
	default:
		return fmt.Sprintf("%s failed %s validation", label, fe.Tag())
	}
}

var labels = map[string]map[string]string{
	"ChurchCreate": {"name": "Church name"},
	"ChurchUpdate": {"name": "Church name"},
	"MetricCreate": {"name": "Metric name", "key": "Metric key", "icon": "Icon", "order": "Order"},
	"MetricUpdate": {"name": "Metric name", "icon": "Icon", "order": "Order"},
}

func labelFor(root, field string) string {
	if byField, ok := labels[root]; ok {
		if label, ok := byField[field]; ok {
			return label
		}
	}
	if field == "" {
		return "Value"
	}
	// Element fields such as items[0] keep only their base name
	if base, _, found := strings.Cut(field, "["); found {
		field = base
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
