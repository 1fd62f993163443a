package binder

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

var (
	// ErrBinderNotApplicable means the request has nothing for this binder.
	// handler.Wrap moves on to the next binder.
	ErrBinderNotApplicable  = errors.New("binder not applicable to request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
)

// Func fills v from r.
type Func = func(r *http.Request, v any) error

// Query binds URL query parameters to fields tagged `query:"name"`.
// Slice fields accept repeated or comma-separated values.
func Query() Func {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return fill(v, "query", ErrFailedToParseQuery, func(name string) []string { return q[name] })
	}
}

// Path binds router path parameters to fields tagged `path:"name"`.
// param returns the named parameter, for example chi.URLParam.
func Path(param func(r *http.Request, name string) string) Func {
	return func(r *http.Request, v any) error {
		return fill(v, "path", ErrFailedToParsePath, func(name string) []string {
			if s := param(r, name); s != "" {
				return []string{s}
			}
			return nil
		})
	}
}

// fill walks the exported fields of *v carrying tag and assigns whatever
// lookup returns for them. Untagged fields belong to other binders.
func fill(v any, tag string, kind error, lookup func(name string) []string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to struct", kind)
	}
	rv = rv.Elem()
	for i := range rv.NumField() {
		sf := rv.Type().Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		if name == "" || name == "-" {
			continue
		}
		raw := lookup(name)
		if len(raw) == 0 {
			continue
		}
		if err := assign(rv.Field(i), raw); err != nil {
			return fmt.Errorf("%w: field %s: %v", kind, sf.Name, err)
		}
	}
	return nil
}

func assign(f reflect.Value, raw []string) error {
	switch f.Kind() {
	case reflect.Pointer:
		if f.IsNil() {
			f.Set(reflect.New(f.Type().Elem()))
		}
		return assign(f.Elem(), raw)
	case reflect.Slice:
		var parts []string
		for _, s := range raw {
			for p := range strings.SplitSeq(s, ",") {
				parts = append(parts, strings.TrimSpace(p))
			}
		}
		out := reflect.MakeSlice(f.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := scalar(out.Index(i), p); err != nil {
				return err
			}
		}
		f.Set(out)
		return nil
	default:
		return scalar(f, raw[0])
	}
}

func scalar(f reflect.Value, s string) error {
	bad := func() error { return fmt.Errorf("invalid %s value %q", f.Kind(), s) }
	switch f.Kind() {
	case reflect.String:
		f.SetString(s)
	case reflect.Bool:
		switch strings.ToLower(s) {
		case "1", "t", "true", "on", "yes":
			f.SetBool(true)
		case "0", "f", "false", "off", "no":
			f.SetBool(false)
		default:
			return bad()
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, f.Type().Bits())
		if err != nil {
			return bad()
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, f.Type().Bits())
		if err != nil {
			return bad()
		}
		f.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, f.Type().Bits())
		if err != nil {
			return bad()
		}
		f.SetFloat(n)
	default:
		return fmt.Errorf("unsupported type %s", f.Type())
	}
	return nil
}
