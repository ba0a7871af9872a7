package forge

import (
	"net/url"
	"strconv"
	"strings"
)

// lastPage extracts the page number of the rel="last" link from an RFC 5988
// Link header. The header may carry several comma-separated links and the
// "page" parameter may appear anywhere in the query string.
//
// Expectations:
//   - Returns the page=N value of the rel="last" link
//   - Handles both "other=…&page=N" and "page=N&other=…" query orderings
//   - Tolerates multiple comma-separated links in any order
//   - Returns ok=false when no rel="last" link is present
//   - Returns ok=false for an empty header
func lastPage(header string) (int, bool) {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		if !linkIsLast(segments[1:]) {
			continue
		}
		u, err := url.Parse(target[1 : len(target)-1])
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil || n < 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

func linkIsLast(params []string) bool {
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == `rel="last"` || p == "rel=last" {
			return true
		}
	}
	return false
}
