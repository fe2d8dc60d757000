package mws

import (
	"sort"
	"strings"
)

// Params is the flat key/value set sent as an MWS form body.
type Params map[string]string

// Set stores value under key.
func (p Params) Set(key, value string) {
	p[key] = value
}

// Get returns the value stored under key, or "".
func (p Params) Get(key string) string {
	return p[key]
}

// Delete removes key.
func (p Params) Delete(key string) {
	delete(p, key)
}

// DeletePrefix removes every key starting with prefix.
func (p Params) DeletePrefix(prefix string) {
	for k := range p {
		if strings.HasPrefix(k, prefix) {
			delete(p, k)
		}
	}
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in byte order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode returns the canonical query string: keys in byte order, both
// keys and values percent-encoded per RFC 3986.
func (p Params) Encode() string {
	var b strings.Builder
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(k))
		b.WriteByte('=')
		b.WriteString(Escape(p[k]))
	}
	return b.String()
}

// Escape percent-encodes everything except the RFC 3986 unreserved set.
func Escape(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
