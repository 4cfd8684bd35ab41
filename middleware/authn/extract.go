package authn

import (
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

// HeaderAuthorization is the default token header
const HeaderAuthorization = "Authorization"

// ErrMissingOrMalformed no token could be read from the request
var ErrMissingOrMalformed = errors.New("missing or malformed token")

// Extractor reads a raw token from the request
type Extractor func(c router.Context) (string, error)

// GetExtractors builds extractors from a lookup string such as
// "header:Authorization,cookie:jwt,query:auth_token"
func GetExtractors(tokenLookup string, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, fromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, fromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, fromCookie(parts[1]))
		}
	}

	return extractors
}

// extractRawToken returns the first token any extractor finds
func extractRawToken(c router.Context, extractors []Extractor) (string, error) {
	err := ErrMissingOrMalformed
	for _, extractor := range extractors {
		raw, e := extractor(c)
		if raw != "" && e == nil {
			return raw, nil
		}
		if e != nil {
			err = e
		}
	}
	return "", err
}

// fromHeader expects "<scheme> <token>". The scheme match ignores case.
func fromHeader(header string, authScheme string) Extractor {
	authScheme = strings.TrimSpace(authScheme)
	return func(c router.Context) (string, error) {
		a := c.Header(header)
		l := len(authScheme)
		if l == 0 {
			if token := strings.TrimSpace(a); token != "" {
				return token, nil
			}
			return "", ErrMissingOrMalformed
		}
		if len(a) > l+1 && a[l] == ' ' && strings.EqualFold(a[:l], authScheme) {
			if token := strings.TrimSpace(a[l+1:]); token != "" {
				return token, nil
			}
		}
		return "", ErrMissingOrMalformed
	}
}

func fromQuery(param string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}
