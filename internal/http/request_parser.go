// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, path ids and the query parameters shared by list and report
// endpoints.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var errInvalidBody = core.ValidationError("Invalid request body")

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched. Validation errors raised by the core types while decoding are
// returned as they are so the client sees the precise message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, core.ErrValidation):
			return err
		default:
			return errInvalidBody
		}
	}
	if dec.More() {
		return errInvalidBody
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ValidationError("Invalid id")
	}
	return id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(q url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.ValidationError("Invalid %s, expected YYYY-MM-DD", key)
	}
	return &d, nil
}

// queryDateRange reads start_date and end_date.
func queryDateRange(q url.Values) (start, end *core.Date, err error) {
	if start, err = queryDate(q, "start_date"); err != nil {
		return nil, nil, err
	}
	if end, err = queryDate(q, "end_date"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// queryBool parses an optional boolean. The loose encodings accepted in
// bodies apply here too.
func queryBool(q url.Values, key string) (*bool, error) {
	v := strings.ToLower(strings.TrimSpace(q.Get(key)))
	switch v {
	case "":
		return nil, nil
	case "1", "true", "on":
		b := true
		return &b, nil
	case "0", "false", "off":
		b := false
		return &b, nil
	}
	return nil, core.ValidationError("Invalid %s, expected a boolean", key)
}

// queryInt parses an optional integer, returning def when absent.
func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.ValidationError("Invalid %s, expected an integer", key)
	}
	return n, nil
}

func queryID(q url.Values, key string) (*int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, core.ValidationError("Invalid %s", key)
	}
	return &id, nil
}

// ledgerFilter reads the filters shared by the expense and income listings.
func ledgerFilter(q url.Values) (core.LedgerFilter, error) {
	var f core.LedgerFilter
	var err error

	if f.StartDate, f.EndDate, err = queryDateRange(q); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryID(q, "category_id"); err != nil {
		return f, err
	}
	if f.SourceID, err = queryID(q, "source_id"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(q, "limit", 0); err != nil {
		return f, err
	}
	if f.Limit < 0 {
		return f, core.ValidationError("Invalid limit, must not be negative")
	}
	return f, nil
}
