package review

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// MediaURLNotFound is the sentinel returned when no usable URL could be
// extracted from an upload response. Callers present it as a diagnosable
// failure instead of silently dropping the result.
const MediaURLNotFound = "media-url-not-found"

// directURLFields are checked before any heuristic, in priority order.
var directURLFields = []string{"mediaUrl", "url", "fileUrl"}

// URLResolver extracts the asset URL from an upload response. The service's
// response shape is not fixed, so resolution falls through several layers:
// exact known fields, a scan of the whole response tree, and finally a match
// against the storage backend's hostname.
type URLResolver struct {
	hostPattern string
	deepScan    bool
	now         func() time.Time
}

func NewURLResolver(hostPattern string, deepScan bool) *URLResolver {
	return &URLResolver{
		hostPattern: hostPattern,
		deepScan:    deepScan,
		now:         time.Now,
	}
}

// Resolve returns the extracted URL and whether extraction succeeded.
// filename is the base name of the uploaded file, empty for prompt uploads.
func (r *URLResolver) Resolve(body map[string]any, mediaType domain.MediaType, filename string) (string, bool) {
	if len(body) == 0 {
		return "", false
	}

	fields := append(append([]string(nil), directURLFields...), mediaType.ContentField())
	for _, scope := range []map[string]any{body, asMap(body["payload"]), asMap(body["data"])} {
		if scope == nil {
			continue
		}
		for _, field := range fields {
			if s, ok := scope[field].(string); ok && s != "" {
				return s, true
			}
		}
	}

	if r.deepScan {
		if best := r.pickBest(collectURLCandidates(body, 0), filename); best != "" {
			return best, true
		}
	}

	if r.hostPattern != "" {
		if s := findByHost(body, r.hostPattern); s != "" {
			return s, true
		}
	}

	return "", false
}

type urlCandidate struct {
	value string
	depth int
}

// collectURLCandidates walks the response tree in deterministic key order
// and gathers every string that looks like a URL: either an absolute URL
// value, or any value stored under a key whose name contains "url".
func collectURLCandidates(v any, depth int) []urlCandidate {
	var out []urlCandidate
	switch node := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := node[k].(string); ok && s != "" {
				if isAbsoluteURL(s) || strings.Contains(strings.ToLower(k), "url") {
					out = append(out, urlCandidate{value: s, depth: depth + 1})
				}
				continue
			}
			out = append(out, collectURLCandidates(node[k], depth+1)...)
		}
	case []any:
		for _, item := range node {
			out = append(out, collectURLCandidates(item, depth+1)...)
		}
	}
	return out
}

// timestampToken matches unix-epoch tokens (seconds or milliseconds)
// commonly embedded in generated asset names.
var timestampToken = regexp.MustCompile(`\d{10,13}`)

// pickBest scores candidates and returns the winner, or "" when there are
// none. Scoring favors filename correlation, then timestamp recency, then
// structural depth; ties keep the earliest candidate in traversal order.
func (r *URLResolver) pickBest(candidates []urlCandidate, filename string) string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	best, bestScore := "", -1
	for _, c := range candidates {
		score := c.depth
		if base != "" && strings.Contains(c.value, base) {
			score += 1000
		}
		score += r.recencyScore(c.value)
		if score > bestScore {
			best, bestScore = c.value, score
		}
	}
	return best
}

// recencyScore rewards candidates whose embedded timestamp is close to now.
// URLs without a recognizable timestamp score zero.
func (r *URLResolver) recencyScore(candidate string) int {
	token := timestampToken.FindString(candidate)
	if token == "" {
		return 0
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0
	}
	ts := time.Unix(n, 0)
	if len(token) == 13 {
		ts = time.UnixMilli(n)
	}
	age := r.now().Sub(ts)
	if age < 0 {
		age = -age
	}
	switch {
	case age < time.Hour:
		return 100
	case age < 24*time.Hour:
		return 50
	case age < 30*24*time.Hour:
		return 10
	default:
		return 0
	}
}

// findByHost returns the first string in the tree containing the storage
// backend's hostname fragment.
func findByHost(v any, pattern string) string {
	switch node := v.(type) {
	case string:
		if strings.Contains(node, pattern) && isAbsoluteURL(node) {
			return node
		}
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := findByHost(node[k], pattern); s != "" {
				return s
			}
		}
	case []any:
		for _, item := range node {
			if s := findByHost(item, pattern); s != "" {
				return s
			}
		}
	}
	return ""
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
