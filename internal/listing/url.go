package listing

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query keys removed during canonicalization in addition
// to any utm_* key.
var trackingParams = map[string]bool{
	"gclid":                      true,
	"fbclid":                     true,
	"msclkid":                    true,
	"mc_cid":                     true,
	"mc_eid":                     true,
	"source_impression_id":       true,
	"previous_page_section_name": true,
	"federated_search_id":        true,
	"search_mode":                true,
	"check_in":                   true,
	"check_out":                  true,
	"adults":                     true,
	"guests":                     true,
}

// CanonicalURL normalizes a listing URL so that feed pulls and user requests
// can be joined: lower-case scheme and host, no fragment, no tracking or
// stay-specific query parameters, no trailing slash, sorted query.
// Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
