// Package filings exposes the marketplace's submission operations: login,
// per-service applications, status updates and the aggregated
// my-applications fetch across every store.
package filings

import (
	"encoding/json"
	"strconv"
	"time"
)

// Record is one user-filed application as returned by either store. The
// backend merges arbitrary service-specific fields into the same object,
// so records stay as maps with typed accessors for the conventional
// fields.
type Record map[string]any

// ParseFormData accepts the embedded form-data value in either of the two
// shapes backends return it: a JSON-encoded string or an already-parsed
// object. Anything else, including malformed JSON, yields nil.
func ParseFormData(v any) map[string]any {
	switch fd := v.(type) {
	case map[string]any:
		return fd
	case string:
		if fd == "" {
			return nil
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(fd), &parsed); err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

// coerceID turns a submission identifier into its string key form. Numeric
// and string ids that stringify identically collide intentionally. Falsy
// values (nil, empty string, zero) coerce to "", which callers treat as
// "no usable id".
func coerceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == 0 {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		if id == 0 {
			return ""
		}
		return strconv.Itoa(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// firstID returns the first usable id among the candidates, in order.
func firstID(candidates ...any) string {
	for _, c := range candidates {
		if id := coerceID(c); id != "" {
			return id
		}
	}
	return ""
}

func (r Record) str(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ID returns the normalized submission identifier.
func (r Record) ID() string {
	return firstID(r["id"], r["submissionId"])
}

// Service returns the service tag the record was filed under.
func (r Record) Service() string {
	return r.str("service")
}

// ServiceName returns the human-readable service label.
func (r Record) ServiceName() string {
	return r.str("serviceName", "service")
}

// Status returns the server-controlled status string.
func (r Record) Status() string {
	return r.str("status")
}

// Client returns the applicant display name, falling back through the
// fields the stores have been seen to use.
func (r Record) Client() string {
	return r.str("client", "applicantName", "fullName", "businessName", "name", "email")
}

// SubmittedAt parses the server-assigned submission timestamp; zero when
// absent or unparseable.
func (r Record) SubmittedAt() time.Time {
	raw := r.str("submittedAt", "createdAt")
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
