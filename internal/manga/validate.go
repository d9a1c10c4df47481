package manga

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mangashelf/pkg/models"
)

// Mode selects how missing fields are treated.
type Mode int

const (
	// Strict requires every field (creation).
	Strict Mode = iota
	// Partial accepts any subset of fields (update).
	Partial
)

// isoLayouts are the ISO-8601 shapes accepted for publicationDate.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// maxExactInt is the largest integer a JSON number holds without loss.
const maxExactInt = 1 << 53

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindNumber
	kindStrings
)

type fieldRule struct {
	name    string
	kind    fieldKind
	strict  string // validator tag in Strict mode
	partial string // validator tag in Partial mode
	assign  func(p *Patch, v any)
}

// rules are checked in this order; the first failure wins.
var rules = []fieldRule{
	{name: "title", kind: kindString, strict: "min=1", partial: "min=1",
		assign: func(p *Patch, v any) { s := v.(string); p.Title = &s }},
	{name: "author", kind: kindString, strict: "min=1", partial: "min=1",
		assign: func(p *Patch, v any) { s := v.(string); p.Author = &s }},
	{name: "genres", kind: kindStrings, strict: genresTag(), partial: genresTag(),
		assign: func(p *Patch, v any) { p.Genres = v.([]string) }},
	{name: "volumeCount", kind: kindInt, strict: "min=1", partial: "min=1",
		assign: func(p *Patch, v any) { n := v.(int); p.VolumeCount = &n }},
	{name: "publicationDate", kind: kindString, strict: "isodate", partial: "isodate",
		assign: func(p *Patch, v any) { s := v.(string); p.PublicationDate = &s }},
	{name: "synopsis", kind: kindString, strict: "min=10", partial: "min=1",
		assign: func(p *Patch, v any) { s := v.(string); p.Synopsis = &s }},
	{name: "rating", kind: kindNumber, strict: "gte=0,lte=10", partial: "gte=0,lte=10",
		assign: func(p *Patch, v any) { f := v.(float64); p.Rating = &f }},
	{name: "publisher", kind: kindString, strict: "min=1", partial: "min=1",
		assign: func(p *Patch, v any) { s := v.(string); p.Publisher = &s }},
}

func genresTag() string {
	names := make([]string, len(models.Genres))
	for i, g := range models.Genres {
		names[i] = string(g)
	}
	return "min=1,dive,oneof=" + strings.Join(names, " ")
}

// Validator checks payloads against the record rules. It holds no state
// besides the compiled validator and is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isISODate(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register isodate: %v", err))
	}
	return &Validator{v: v}
}

// Validate checks payload field by field and returns the typed patch.
// An "id" key is accepted and dropped; any other unknown key fails.
func (val *Validator) Validate(payload map[string]any, mode Mode) (Patch, error) {
	var p Patch
	for _, r := range rules {
		raw, ok := payload[r.name]
		if !ok {
			if mode == Strict {
				return Patch{}, &ValidationError{Field: r.name, Rule: "is required"}
			}
			continue
		}

		v, err := coerce(r.kind, raw)
		if err != nil {
			return Patch{}, &ValidationError{Field: r.name, Rule: err.Error()}
		}

		tag := r.strict
		if mode == Partial {
			tag = r.partial
		}
		if err := val.v.Var(v, tag); err != nil {
			return Patch{}, &ValidationError{Field: r.name, Rule: describe(err)}
		}
		r.assign(&p, v)
	}

	if key := firstUnknownKey(payload); key != "" {
		return Patch{}, &ValidationError{Field: key, Rule: "is not allowed"}
	}
	return p, nil
}

func coerce(kind fieldKind, raw any) (any, error) {
	switch kind {
	case kindString:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("must be a string")
		}
		return s, nil

	case kindInt:
		f, ok := toFloat(raw)
		if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
			return nil, errors.New("must be an integer")
		}
		return int(f), nil

	case kindNumber:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New("must be a number")
		}
		return f, nil

	case kindStrings:
		switch list := raw.(type) {
		case []string:
			return append([]string(nil), list...), nil
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return nil, errors.New("must contain only strings")
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, errors.New("must be an array")
		}
	}
	return nil, fmt.Errorf("unsupported field kind %d", kind)
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// describe turns the first validator failure into a human rule.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}
	fe := verrs[0]

	switch fe.Tag() {
	case "min":
		switch fe.Kind() {
		case reflect.String:
			if fe.Param() == "1" {
				return "must not be empty"
			}
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		default:
			return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		}
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("contains unknown genre %q (allowed: %s)",
			fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "isodate":
		return "must be an ISO-8601 date"
	default:
		return "failed " + fe.Tag()
	}
}

func isISODate(s string) bool {
	for _, layout := range isoLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func firstUnknownKey(payload map[string]any) string {
	known := make(map[string]struct{}, len(rules)+1)
	known["id"] = struct{}{}
	for _, r := range rules {
		known[r.name] = struct{}{}
	}

	var unknown []string
	for k := range payload {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return ""
	}
	sort.Strings(unknown)
	return unknown[0]
}
