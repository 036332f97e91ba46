package ingest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/flowhook/core/internal/models"
)

// Delivery is the raw capture of one inbound request. The body stream
// is read exactly once by the handler; everything downstream, including
// HMAC verification, works from RawBody.
type Delivery struct {
	Method      string
	Path        string
	Headers     map[string]interface{}
	Query       map[string]interface{}
	RawBody     []byte
	Body        map[string]interface{}
	ContentType string
	SourceIP    string
	UserAgent   string
}

// CaptureDelivery builds a Delivery from the request and the already
// consumed body bytes.
func CaptureDelivery(r *http.Request, rawBody []byte) *Delivery {
	headers := make(map[string]interface{}, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	query := make(map[string]interface{})
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	return &Delivery{
		Method:      r.Method,
		Path:        r.URL.Path,
		Headers:     headers,
		Query:       query,
		RawBody:     rawBody,
		Body:        parseBody(rawBody),
		ContentType: r.Header.Get("Content-Type"),
		SourceIP:    resolveSourceIP(r.Header),
		UserAgent:   r.UserAgent(),
	}
}

// header returns a request header value, case-insensitively.
func (d *Delivery) header(name string) string {
	v, ok := d.Headers[http.CanonicalHeaderKey(name)]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// parseBody never fails: JSON object first, URL-encoded form second,
// {raw: <text>} last.
func parseBody(raw []byte) map[string]interface{} {
	text := string(raw)
	if len(raw) == 0 {
		return map[string]interface{}{}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed
	}

	if strings.Contains(text, "=") {
		if values, err := url.ParseQuery(text); err == nil && len(values) > 0 {
			form := make(map[string]interface{}, len(values))
			for k, v := range values {
				if len(v) > 0 {
					form[k] = v[0]
				}
			}
			return form
		}
	}

	return map[string]interface{}{"raw": text}
}

// resolveSourceIP prefers the first forwarded-for entry, then the
// connecting-IP header the edge proxy sets, then "unknown".
func resolveSourceIP(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip := h.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// eventIDHeaders are probed, in order, when the body carries no key.
var eventIDHeaders = []string{"X-Event-ID", "X-Request-ID", "X-Idempotency-Key"}

// ExtractEventID derives the caller-supplied idempotency key. Probe
// order: body[dedupField], body.id, body.event.id, body.data.id, then
// the well-known headers. Empty string means no key was found.
func ExtractEventID(d *Delivery, dedupField string) string {
	if dedupField == "" {
		dedupField = models.DefaultDedupField
	}

	if v := stringField(d.Body, dedupField); v != "" {
		return v
	}
	if v := stringField(d.Body, "id"); v != "" {
		return v
	}
	for _, parent := range []string{"event", "data"} {
		if nested, ok := d.Body[parent].(map[string]interface{}); ok {
			if v := stringField(nested, "id"); v != "" {
				return v
			}
		}
	}
	for _, name := range eventIDHeaders {
		if v := d.header(name); v != "" {
			return v
		}
	}
	return ""
}

// stringField renders a JSON field as a string; numbers are formatted
// the way encoding/json decoded them so numeric ids stay usable.
func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return ""
	}
}
