// Package validate checks request structs against `validate` struct tags.
//
// Rules are comma separated and the first failing rule of a field wins:
//
//	required         non-zero value
//	nullable         skip the remaining rules when the value is empty
//	email            plausible email address
//	min=N / max=N    string length in runes, or numeric value
//	between=A,B      inclusive numeric range, or string length range
//	in=a|b|c         one of the listed values
//
// Nested structs, struct pointers and slices of structs are walked, and
// their errors are keyed by dotted JSON path ("items.0.quantity").
//
//	type ReviewInput struct {
//	    Rating  int    `json:"rating"  validate:"required,between=1,5"`
//	    Comment string `json:"comment" validate:"required,max=1000"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Struct validates v and returns field path → message. An empty map means v
// is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	walk(reflect.ValueOf(v), "", errs)
	return errs
}

// HasErrors reports whether errs holds any failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func walk(rv reflect.Value, prefix string, errs map[string]string) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		name := prefix + jsonName(field)

		if tag := field.Tag.Get("validate"); tag != "" {
			if msg := check(splitRules(tag), jsonName(field), value); msg != "" {
				errs[name] = msg
				continue
			}
		}

		switch value.Kind() {
		case reflect.Struct, reflect.Ptr:
			walk(value, name+".", errs)
		case reflect.Slice:
			for j := 0; j < value.Len(); j++ {
				walk(value.Index(j), fmt.Sprintf("%s.%d.", name, j), errs)
			}
		}
	}
}

func check(rules []string, field string, v reflect.Value) string {
	for _, r := range rules {
		if r == "nullable" && isEmpty(v) {
			return ""
		}
	}
	for _, r := range rules {
		if msg := apply(r, field, v); msg != "" {
			return msg
		}
	}
	return ""
}

func apply(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}

	switch key {
	case "nullable":
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "email":
		if !emailRE.MatchString(fmt.Sprint(v.Interface())) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "min":
		n := atof(param)
		if isNumber(v) && number(v) < n {
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		}
		if v.Kind() == reflect.String && float64(utf8.RuneCountInString(v.String())) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		n := atof(param)
		if isNumber(v) && number(v) > n {
			return fmt.Sprintf("The %s may not be greater than %s.", field, param)
		}
		if v.Kind() == reflect.String && float64(utf8.RuneCountInString(v.String())) > n {
			return fmt.Sprintf("The %s may not be greater than %s characters.", field, param)
		}
	case "between":
		lo, hi, _ := strings.Cut(param, ",")
		var got float64
		switch {
		case isNumber(v):
			got = number(v)
		case v.Kind() == reflect.String:
			got = float64(utf8.RuneCountInString(v.String()))
		default:
			return ""
		}
		if got < atof(lo) || got > atof(hi) {
			return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
		}
	case "in":
		got := fmt.Sprint(v.Interface())
		for _, opt := range strings.Split(param, "|") {
			if got == opt {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		panic("validate: unknown rule " + key)
	}
	return ""
}

// splitRules splits on commas but keeps "between=1,5" together.
func splitRules(tag string) []string {
	var rules []string
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if n := len(rules); n > 0 && isNumeric(part) &&
			strings.HasPrefix(rules[n-1], "between=") && !strings.Contains(rules[n-1], ",") {
			rules[n-1] += "," + part
			continue
		}
		if part != "" {
			rules = append(rules, part)
		}
	}
	return rules
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func number(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
