package auth

import (
	"strings"

	"weft/service"
	"weft/werror"
)

// SourceType selects where a Source looks for the credential.
type SourceType int

const (
	// SourceHeader reads the key from a request header.
	SourceHeader SourceType = iota
	// SourceQuery reads the key from a URL query parameter.
	SourceQuery
)

// Source is one place to look for an API key, tried in order.
type Source struct {
	Type   SourceType
	Name   string
	Scheme string // e.g. "Bearer"; stripped as a prefix if set.
}

// HeaderSource builds a Source reading header name, optionally
// stripping an auth scheme prefix (e.g. "Bearer ").
func HeaderSource(name, scheme string) Source {
	return Source{Type: SourceHeader, Name: name, Scheme: scheme}
}

// QuerySource builds a Source reading URL query parameter name.
func QuerySource(name string) Source {
	return Source{Type: SourceQuery, Name: name}
}

func extractKey(req *service.Request, sources []Source) (string, error) {
	for _, src := range sources {
		switch src.Type {
		case SourceHeader:
			value := req.Header.Get(src.Name)
			if value == "" {
				continue
			}
			if src.Scheme != "" {
				prefix := src.Scheme + " "
				if strings.HasPrefix(value, prefix) {
					return strings.TrimPrefix(value, prefix), nil
				}
				continue
			}
			return value, nil

		case SourceQuery:
			value := req.URL.Query().Get(src.Name)
			if value != "" {
				return value, nil
			}
		}
	}

	return "", werror.New(werror.KindConfigInvalid, "auth: no API key found in request")
}
