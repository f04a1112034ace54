package urlparam

import (
	"net/url"
	"strings"

	"github.com/vango-dev/tableview/pkg/viewstate"
)

// Encode serializes vs into a raw query string.
//
// Keys are written in viewstate.Keys order and repeated once per value, in
// slice order. Keys with no values are omitted, so the empty state encodes
// to "".
func Encode(vs viewstate.ViewState) string {
	var b strings.Builder
	for _, key := range viewstate.Keys {
		name := url.QueryEscape(string(key))
		for _, v := range vs.Get(key) {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(name)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Decode extracts the recognized keys from a raw query string, each as the
// ordered list of its repeated values. Unrecognized keys are ignored.
//
// Pairs are split on '&' only, so a value may contain a raw ';'. A pair with
// an invalid escape is skipped; the rest are kept and the first such error
// is returned.
func Decode(rawQuery string) (viewstate.ViewState, error) {
	values := make(url.Values)
	var firstErr error
	for _, pair := range strings.Split(strings.TrimPrefix(rawQuery, "?"), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err == nil {
			var value string
			if value, err = url.QueryUnescape(rawValue); err == nil {
				values[key] = append(values[key], value)
				continue
			}
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return FromValues(values), firstErr
}

// FromValues converts parsed query values into a ViewState.
func FromValues(values url.Values) viewstate.ViewState {
	var vs viewstate.ViewState
	for _, key := range viewstate.Keys {
		if vals := values[string(key)]; len(vals) > 0 {
			vs = vs.With(key, vals)
		}
	}
	return vs
}
