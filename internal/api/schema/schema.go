// Package schema validates decoded JSON payloads against declared object shapes.
package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Issue describes one failed field constraint.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Rule names reported in issues.
const (
	RuleType      = "type"
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleFormat    = "format"
)

// Field is a single string property of an object shape.
type Field struct {
	Name      string
	MinLength int
	// Check is an optional extra constraint run after the length check.
	Check func(value string) *Issue
}

// Shape is an object with string fields. Unknown properties are dropped.
type Shape struct {
	fields []Field
}

// Object builds a shape from its fields. Issues are reported in field order.
func Object(fields ...Field) *Shape {
	return &Shape{fields: fields}
}

// String declares a required string field with a minimum rune length.
func String(name string, minLength int) Field {
	return Field{Name: name, MinLength: minLength}
}

// Email declares a required string field that must look like an email address.
func Email(name string) Field {
	return Field{Name: name, Check: func(value string) *Issue {
		at := strings.LastIndex(value, "@")
		if at <= 0 || at == len(value)-1 || !strings.Contains(value[at+1:], ".") || strings.ContainsAny(value, " \t") {
			return &Issue{Field: name, Rule: RuleFormat, Message: fmt.Sprintf("%s must be a valid email address", name)}
		}
		return nil
	}}
}

// Validate checks value against the shape and returns the validated fields.
// The returned map is only meaningful when issues is empty.
func (s *Shape) Validate(value any) (map[string]string, []Issue) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, []Issue{{Rule: RuleType, Message: "payload must be a JSON object"}}
	}

	out := make(map[string]string, len(s.fields))
	var issues []Issue
	for _, f := range s.fields {
		raw, present := obj[f.Name]
		if !present || raw == nil {
			issues = append(issues, Issue{Field: f.Name, Rule: RuleRequired, Message: fmt.Sprintf("%s is required", f.Name)})
			continue
		}
		str, ok := raw.(string)
		if !ok {
			issues = append(issues, Issue{Field: f.Name, Rule: RuleType, Message: fmt.Sprintf("%s must be a string", f.Name)})
			continue
		}
		if n := utf8.RuneCountInString(str); n < f.MinLength {
			issues = append(issues, Issue{
				Field:   f.Name,
				Rule:    RuleMinLength,
				Message: fmt.Sprintf("%s must be at least %d characters, got %d", f.Name, f.MinLength, n),
			})
			continue
		}
		if f.Check != nil {
			if issue := f.Check(str); issue != nil {
				issues = append(issues, *issue)
				continue
			}
		}
		out[f.Name] = str
	}
	return out, issues
}
