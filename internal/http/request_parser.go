// This file implements utilities for parsing and validating request bodies.
// Clients send either JSON objects or form-encoded data; handlers read both
// through the same accessor.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// top-level fields as strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body. Bodies starting with '{' are JSON, anything else
// is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns the trimmed, sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns the value of key without sanitizing. Passwords go through
// here so their bytes are preserved.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Has reports whether key is present with a non-blank value.
func (p *RequestBodyParser) Has(key string) bool {
	return p.Get(key) != ""
}

// Decode unmarshals a JSON body into v.
func (p *RequestBodyParser) Decode(v any) error {
	if err := p.Parse(); err != nil {
		return err
	}
	if p.jsonData == nil {
		return errors.New("expected a JSON object")
	}
	return json.Unmarshal(bytes.TrimSpace(p.body), v)
}

func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and parses the request body, writing a 400 on failure.
// The returned parser is nil when a response has been written.
func parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, errBodyTooLarge) {
			msg = "Request body too large"
		}
		BadRequestError(msg).Write(w)
		return nil
	}
	return p
}

// missing returns the keys with blank values.
func (p *RequestBodyParser) missing(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if !p.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// validator collects field errors the way the registration forms report
// them: every failing field at once.
type validator struct {
	p      *RequestBodyParser
	errors []FieldError
}

func newValidator(p *RequestBodyParser) *validator {
	return &validator{p: p}
}

func (v *validator) fail(field, msg string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: msg})
}

func (v *validator) Required(field, msg string) *validator {
	if !v.p.Has(field) {
		v.fail(field, msg)
	}
	return v
}

func (v *validator) Email(field, msg string) *validator {
	if !isEmail(v.p.Get(field)) {
		v.fail(field, msg)
	}
	return v
}

func (v *validator) MinLength(field string, n int, msg string) *validator {
	if len(v.p.GetRaw(field)) < n {
		v.fail(field, msg)
	}
	return v
}

func (v *validator) Int(field, msg string) *validator {
	if _, err := strconv.Atoi(v.p.Get(field)); err != nil {
		v.fail(field, msg)
	}
	return v
}

func (v *validator) FloatRange(field string, lo, hi float64, msg string) *validator {
	f, err := strconv.ParseFloat(v.p.Get(field), 64)
	if err != nil || f < lo || f > hi {
		v.fail(field, msg)
	}
	return v
}

func (v *validator) Decimal(field, msg string) *validator {
	if _, err := parseAmount(v.p.Get(field)); err != nil {
		v.fail(field, msg)
	}
	return v
}

// OptionalDate accepts a blank value or an ISO 8601 date.
func (v *validator) OptionalDate(field, msg string) *validator {
	if s := v.p.Get(field); s != "" {
		if _, err := parseDate(s); err != nil {
			v.fail(field, msg)
		}
	}
	return v
}

func (v *validator) Valid() bool {
	return len(v.errors) == 0
}

func (v *validator) Errors() []FieldError {
	return v.errors
}
