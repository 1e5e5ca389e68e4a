package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/salmonumbrella/instagram-cli/internal/debug"
)

// Method is an HTTP method the API accepts.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodDelete Method = http.MethodDelete
)

// ParseMethod accepts get, post and delete in any case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodGet, MethodPost, MethodDelete:
		return m, nil
	case "":
		return MethodGet, nil
	default:
		return "", fmt.Errorf("unsupported method %q (expected GET, POST or DELETE)", s)
	}
}

// RequestSpec describes one API call.
type RequestSpec struct {
	// Endpoint is appended to the base URL, e.g. /users/self. An absolute
	// URL, such as a pagination next_url, is used as is.
	Endpoint   string
	Method     Method
	Parameters map[string]string
}

// BuildRequest turns a RequestSpec into an HTTP request. The access token
// always goes in the query string, first, and is the only token sent: an
// access_token in Parameters is ignored. GET and DELETE carry the
// parameters in the query; POST sends them as a form body.
func BuildRequest(ctx context.Context, baseURL, token string, spec RequestSpec) (*http.Request, error) {
	method := spec.Method
	if method == "" {
		method = MethodGet
	}
	switch method {
	case MethodGet, MethodPost, MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	u, err := url.Parse(resolveEndpoint(baseURL, spec.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", spec.Endpoint, err)
	}

	params := withoutToken(spec.Parameters)
	query := u.Query()
	query.Del(debug.TokenParam)
	if method != MethodPost {
		for k, v := range params {
			query.Set(k, v)
		}
	}
	rawQuery := debug.TokenParam + "=" + url.QueryEscape(token)
	if rest := query.Encode(); rest != "" {
		rawQuery += "&" + rest
	}
	u.RawQuery = rawQuery

	var body io.Reader
	if method == MethodPost {
		body = strings.NewReader(encodeForm(params))
	}

	req, err := http.NewRequestWithContext(ctx, string(method), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if method == MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func resolveEndpoint(baseURL, endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return strings.TrimRight(baseURL, "/") + endpoint
}

func withoutToken(params map[string]string) map[string]string {
	if _, ok := params[debug.TokenParam]; !ok {
		return params
	}
	out := make(map[string]string, len(params)-1)
	for k, v := range params {
		if k != debug.TokenParam {
			out[k] = v
		}
	}
	return out
}

func encodeForm(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	form := make([]string, len(keys))
	for i, k := range keys {
		form[i] = url.QueryEscape(k) + "=" + url.QueryEscape(params[k])
	}
	return strings.Join(form, "&")
}
