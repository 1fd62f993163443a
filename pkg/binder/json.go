package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps JSON request bodies at 1 MiB.
const DefaultMaxJSONSize = 1 << 20

// JSON decodes a single application/json object into v. Unknown fields and
// trailing values are errors. A request with neither body nor Content-Type
// is not applicable.
func JSON() Func {
	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
				return ErrBinderNotApplicable
			}
			return fmt.Errorf("%w: expected application/json, got no content type", ErrUnsupportedMediaType)
		}
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return fmt.Errorf("%w: expected application/json, got %s", ErrUnsupportedMediaType, ct)
		}

		if r.Body == nil {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}
		lr := &io.LimitedReader{R: r.Body, N: DefaultMaxJSONSize + 1}
		dec := json.NewDecoder(lr)
		dec.DisallowUnknownFields()
		err := dec.Decode(v)
		if lr.N <= 0 {
			return fmt.Errorf("%w: body too large, limit is %d bytes", ErrFailedToParseJSON, DefaultMaxJSONSize)
		}
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		case err != nil:
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}
		if dec.More() {
			return fmt.Errorf("%w: trailing data after object", ErrFailedToParseJSON)
		}
		return nil
	}
}
