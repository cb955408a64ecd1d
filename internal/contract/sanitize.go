package contract

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func isPictographic(r rune) bool {
	switch {
	case r == 0x200D: // zero width joiner
		return true
	case r == 0x20E3: // combining enclosing keycap
		return true
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF: // variation selectors
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r >= 0xE0020 && r <= 0xE007F: // tag sequences
		return true
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	}
	return unicode.Is(unicode.So, r)
}

// Sanitize strips emoji and pictographic symbols, collapses whitespace runs
// to single spaces and trims the ends.
func Sanitize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if isPictographic(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeFields applies Sanitize to the named fields of the struct v points
// to. Fields may be string or []string; others are an error.
func SanitizeFields(v any, fields ...string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("sanitize fields: want pointer to struct, got %T", v)
	}
	rv = rv.Elem()
	for _, name := range fields {
		f := rv.FieldByName(name)
		if !f.IsValid() || !f.CanSet() {
			return fmt.Errorf("sanitize fields: %s has no settable field %q", rv.Type(), name)
		}
		switch {
		case f.Kind() == reflect.String:
			f.SetString(Sanitize(f.String()))
		case f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String:
			for i := 0; i < f.Len(); i++ {
				f.Index(i).SetString(Sanitize(f.Index(i).String()))
			}
		default:
			return fmt.Errorf("sanitize fields: %s.%s is %s, not a string", rv.Type(), name, f.Kind())
		}
	}
	return nil
}
