package middleware

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dcarbon/emailpreview/internal/util"
)

const redacted = "<redacted>"

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"cookie":              {},
	"set-cookie":          {},
	"proxy-authorization": {},
	"x-api-key":           {},
	"x-api-token":         {},
	"x-access-token":      {},
	"x-auth-token":        {},
	"x-forwarded-for":     {},
}

// the preview gate takes its shared secret as a query parameter.
var sensitiveParams = map[string]struct{}{
	"secret": {},
	"token":  {},
}

// SanitizeHeaders returns a copy of h that is safe to log. Credentials and
// cookies (including the draft-mode cookie) are redacted.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok {
			out[k] = []string{redacted}
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, util.SanitizeForLog(v))
		}
		out[k] = clean
	}
	return out
}

// SanitizePath prepares a request path for safe logging. Query parameters
// are dropped; use SanitizeQuery for those.
func SanitizePath(p string) string {
	if i := strings.Index(p, "?"); i != -1 {
		p = p[:i]
	}
	return util.SanitizeForLog(p)
}

// SanitizeQuery renders query parameters for logging with the preview
// secret redacted. Keys are sorted.
func SanitizeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			if _, ok := sensitiveParams[strings.ToLower(k)]; ok {
				b.WriteString(redacted)
				continue
			}
			b.WriteString(v)
		}
	}
	return util.SanitizeForLog(b.String())
}
