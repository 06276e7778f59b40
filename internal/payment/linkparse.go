package payment

import (
	"encoding/json"
	"errors"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// LinkParser tries to pull a payment URL out of a raw upstream response body.
type LinkParser struct {
	Name  string
	Parse func(body []byte) (string, bool)
}

// LinkParsers is applied in order; the first parser that yields a URL wins.
var LinkParsers = []LinkParser{
	{Name: "json_field", Parse: ParseJSONField},
	{Name: "bare_url", Parse: ParseBareURL},
	{Name: "embedded_url", Parse: ParseEmbeddedURL},
}

var ErrNoPaymentURL = errors.New("no payment URL in upstream response")

var urlFields = []string{"url", "payment_url", "paymentUrl", "link", "checkout_url", "hosted_url"}

var embeddedURLPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// ExtractPaymentURL runs LinkParsers over body.
func ExtractPaymentURL(body []byte) (string, error) {
	return extractWith(LinkParsers, body)
}

func extractWith(parsers []LinkParser, body []byte) (string, error) {
	for _, p := range parsers {
		if u, ok := p.Parse(body); ok {
			return u, nil
		}
	}
	return "", &GatewayError{Provider: "payflowly", Op: "parse payment link", Err: ErrNoPaymentURL}
}

// ParseJSONField reads a JSON object and returns the first URL-bearing field,
// looking inside a "data" envelope as well.
func ParseJSONField(body []byte) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", false
	}
	if u, ok := urlFromObject(obj); ok {
		return u, true
	}
	if data, ok := obj["data"].(map[string]any); ok {
		return urlFromObject(data)
	}
	return "", false
}

func urlFromObject(obj map[string]any) (string, bool) {
	for _, field := range urlFields {
		if s, ok := obj[field].(string); ok && isHTTPURL(strings.TrimSpace(s)) {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// ParseBareURL accepts a body that is nothing but a URL, optionally as a JSON string.
func ParseBareURL(body []byte) (string, bool) {
	s := strings.TrimSpace(string(body))
	if strings.HasPrefix(s, `"`) {
		var quoted string
		if err := json.Unmarshal([]byte(s), &quoted); err != nil {
			return "", false
		}
		s = strings.TrimSpace(quoted)
	}
	if !isHTTPURL(s) {
		return "", false
	}
	return s, true
}

// ParseEmbeddedURL returns the first http(s) URL found anywhere in body.
// HTML entities in the match are decoded.
func ParseEmbeddedURL(body []byte) (string, bool) {
	for _, m := range embeddedURLPattern.FindAllString(string(body), -1) {
		m = strings.TrimRight(html.UnescapeString(m), ".,;:!?)]}\"'")
		if isHTTPURL(m) {
			return m, true
		}
	}
	return "", false
}

func isHTTPURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
