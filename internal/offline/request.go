package offline

import (
	"net/http"
	"net/url"
	"strings"
)

// IsNavigation reports whether req is a page navigation. Fetch metadata
// decides when present; otherwise a request accepting HTML counts.
func IsNavigation(req *http.Request) bool {
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

// resolve maps a request URL onto origin. An absolute URL on the origin is
// kept as is; any other URL only contributes its path and query, taken
// relative to the origin's base path, so requests never leave the origin.
func resolve(origin, u *url.URL) *url.URL {
	if u.IsAbs() && sameOrigin(origin, u) {
		c := *u
		return &c
	}
	rel := &url.URL{
		Path:     strings.TrimPrefix(u.Path, "/"),
		RawQuery: u.RawQuery,
	}
	return origin.ResolveReference(rel)
}

func sameOrigin(origin, u *url.URL) bool {
	return strings.EqualFold(u.Scheme, origin.Scheme) && strings.EqualFold(u.Host, origin.Host)
}

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// forward sends req to target with the caller's method, headers and body.
func forward(client Fetcher, req *http.Request, target *url.URL) (*http.Response, error) {
	out, err := http.NewRequestWithContext(req.Context(), req.Method, target.String(), req.Body)
	if err != nil {
		return nil, err
	}
	out.Header = req.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	if req.Body != nil && req.Body != http.NoBody {
		out.ContentLength = req.ContentLength
	}
	return client.Do(out)
}
