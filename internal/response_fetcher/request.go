package response_fetcher

import (
	"net/url"
	"strings"
)

// QueryParam is a single key/value pair of a query string. Params are kept as
// an ordered slice rather than url.Values so that order and duplicate keys
// survive into the request.
type QueryParam struct {
	Key   string
	Value string
}

// RequestContext holds the params and headers applied to every request of a
// run. It is built once and shared read-only between fetches.
type RequestContext struct {
	Params  []QueryParam
	Headers map[string]string
}

// SplitPath separates a path into its path component and its own query pairs.
// Blank values are kept and any fragment is dropped. An empty path component
// becomes "/".
func SplitPath(path string) (string, []QueryParam) {
	path, _, _ = strings.Cut(path, "#")
	pathOnly, rawQuery, _ := strings.Cut(path, "?")
	if pathOnly == "" {
		pathOnly = "/"
	}

	return pathOnly, ParseQuery(rawQuery)
}

// ParseQuery parses a raw query string into ordered pairs. Keys without an
// "=" get an empty value. Segments that cannot be unescaped are kept verbatim.
func ParseQuery(rawQuery string) []QueryParam {
	var params []QueryParam
	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}

		key, value, _ := strings.Cut(segment, "=")
		params = append(params, QueryParam{
			Key:   unescape(key),
			Value: unescape(value),
		})
	}

	return params
}

func unescape(s string) string {
	unescaped, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return unescaped
}

// MergeParams returns the path's own params followed by the common params.
// Duplicate keys are all retained.
func MergeParams(own []QueryParam, common []QueryParam) []QueryParam {
	merged := make([]QueryParam, 0, len(own)+len(common))
	merged = append(merged, own...)
	merged = append(merged, common...)
	return merged
}

// EncodeQuery renders params in order, escaping keys and values the same way
// as a form submission.
func EncodeQuery(params []QueryParam) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// JoinUrl joins a base URL and a path with exactly one slash between them.
func JoinUrl(baseUrl string, path string) string {
	return strings.TrimRight(baseUrl, "/") + "/" + strings.TrimLeft(path, "/")
}

// BuildRequestUrl combines the base URL, the path and the merged params into
// the absolute URL that is requested.
func BuildRequestUrl(baseUrl string, path string, common []QueryParam) string {
	pathOnly, own := SplitPath(path)
	reqUrl := JoinUrl(baseUrl, pathOnly)

	merged := MergeParams(own, common)
	if len(merged) == 0 {
		return reqUrl
	}

	return reqUrl + "?" + EncodeQuery(merged)
}

// ParseQueryParam parses a "key=value" argument. A missing "=" gives an empty
// value.
func ParseQueryParam(s string) QueryParam {
	key, value, _ := strings.Cut(s, "=")
	return QueryParam{Key: strings.TrimSpace(key), Value: value}
}

// ParseHeader parses a "Name: value" argument. A missing ":" is accepted as a
// header with an empty value.
func ParseHeader(s string) (string, string) {
	name, value, _ := strings.Cut(s, ":")
	return strings.TrimSpace(name), strings.TrimSpace(value)
}
