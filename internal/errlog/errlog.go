package errlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Field names recognized in a report record.
const (
	FieldLocation = "errorLocation"
	FieldText     = "errorText"
)

// Defaults applied when a record omits a field.
const (
	DefaultURL     = ""
	DefaultMessage = "Unknown Error"
)

// ErrMalformed reports input that is not a well-formed top-level JSON array
// of objects. A report wrapped in a container object ({"data": [...]}) is
// deliberately not unwrapped and surfaces as this error.
var ErrMalformed = errors.New("malformed error report")

// Record is a single entry of a crawl error report. Field access is
// defensive: absent or non-string values fall back to the documented
// defaults rather than failing the run.
type Record map[string]any

// URL returns the errorLocation field, or "" when absent.
func (r Record) URL() string { return r.stringField(FieldLocation, DefaultURL) }

// Message returns the errorText field, or "Unknown Error" when absent.
func (r Record) Message() string { return r.stringField(FieldText, DefaultMessage) }

func (r Record) stringField(key, def string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Reader streams records out of an error report file without materializing
// the whole document. The report's top-level value must be an array; that
// shape is checked when the reader is opened.
type Reader struct {
	f    *os.File
	dec  *json.Decoder
	done bool
}

// Open opens the report at path and consumes the opening bracket of the
// top-level array. The caller owns Close regardless of later read errors.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		_ = f.Close()
		return nil, fmt.Errorf("%w: top-level value must be an array, got %v", ErrMalformed, tok)
	}

	return &Reader{f: f, dec: dec}, nil
}

// Next returns the next record in the array, or io.EOF once the closing
// bracket has been read; further calls keep returning io.EOF. Content
// after the closing bracket means the report is malformed. Any other
// error also means the report is malformed; the reader is not usable
// afterwards.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return nil, io.EOF
	}
	if !r.dec.More() {
		if _, err := r.dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if _, err := r.dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("%w: trailing data after the top-level array", ErrMalformed)
		}
		r.done = true
		return nil, io.EOF
	}

	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
