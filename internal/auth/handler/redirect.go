package handler

import (
	"net/url"
	"strings"
)

// resolveReturnURL picks the post-login destination in priority order:
// the signed round-trip state, then the same-request Origin/Referer
// headers, then the configured frontend URL. Every candidate passes
// through sanitizeReturnURL; the first survivor wins.
func resolveReturnURL(stateURL, origin, referer, fallback string) string {
	for _, candidate := range []string{stateURL, origin, referer} {
		if clean := sanitizeReturnURL(candidate); clean != "" {
			return clean
		}
	}
	return sanitizeReturnURL(fallback)
}

// sanitizeReturnURL strips the query string and fragment from a
// candidate destination so the final redirect cannot smuggle extra
// parameters next to the token. Returns "" when the candidate is
// unusable (empty, relative, non-http, or carrying userinfo).
func sanitizeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" || u.User != nil {
		return ""
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return strings.TrimSuffix(u.String(), "/")
}
