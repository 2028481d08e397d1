package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Option is one answer choice of a multiple-choice question.
type Option struct {
	Key  string
	Text string
}

// Options is the canonical key→text mapping of a question's choices, in display order.
//
// The backend sends options as an object, an array, a JSON-encoded string of either,
// or a comma-delimited string. UnmarshalJSON accepts all of them and never fails:
// anything it cannot interpret becomes an empty mapping.
type Options []Option

// OptionKey returns the generated key for the i-th option: a..z, aa, ab, ...
func OptionKey(i int) string {
	if i < 0 {
		return ""
	}
	var b []byte
	for {
		b = append([]byte{byte('a' + i%26)}, b...)
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return string(b)
}

// ParseOptions normalizes a raw options payload.
func ParseOptions(raw []byte) Options {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Options{}
	}
	switch raw[0] {
	case '{':
		if opts, ok := parseOptionObject(raw); ok {
			return opts
		}
	case '[':
		if opts, ok := parseOptionArray(raw); ok {
			return opts
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return parseOptionString(s)
		}
	}
	return Options{}
}

func parseOptionString(s string) Options {
	s = strings.TrimSpace(s)
	if s == "" {
		return Options{}
	}
	if s[0] == '{' {
		if opts, ok := parseOptionObject([]byte(s)); ok {
			return opts
		}
	}
	if s[0] == '[' {
		if opts, ok := parseOptionArray([]byte(s)); ok {
			return opts
		}
	}

	parts := strings.Split(s, ",")
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			texts = append(texts, p)
		}
	}
	return enumerate(texts)
}

func parseOptionObject(raw []byte) (Options, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	opts := Options{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		opts = append(opts, Option{Key: key, Text: scalarText(value)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	return opts, true
}

func parseOptionArray(raw []byte) (Options, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			var obj struct {
				Text  *string `json:"text"`
				Label *string `json:"label"`
				Value *string `json:"value"`
			}
			if err := json.Unmarshal(item, &obj); err == nil {
				switch {
				case obj.Text != nil:
					texts = append(texts, *obj.Text)
					continue
				case obj.Label != nil:
					texts = append(texts, *obj.Label)
					continue
				case obj.Value != nil:
					texts = append(texts, *obj.Value)
					continue
				}
			}
		}
		texts = append(texts, scalarText(item))
	}
	return enumerate(texts), true
}

func enumerate(texts []string) Options {
	opts := make(Options, 0, len(texts))
	for i, t := range texts {
		opts = append(opts, Option{Key: OptionKey(i), Text: t})
	}
	return opts
}

func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Options) UnmarshalJSON(data []byte) error {
	*o = ParseOptions(data)
	return nil
}

// MarshalJSON writes the options as a JSON object in display order.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Text returns the display text for key.
func (o Options) Text(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

// Has reports whether key is one of the options.
func (o Options) Has(key string) bool {
	_, ok := o.Text(key)
	return ok
}

// KeyFor resolves a backend reference to an option into its key. It accepts a key
// (case-insensitive), the option's display text, or a zero-based index.
func (o Options) KeyFor(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	for _, opt := range o {
		if opt.Key == ref {
			return opt.Key, true
		}
	}
	for _, opt := range o {
		if strings.EqualFold(opt.Key, ref) {
			return opt.Key, true
		}
	}
	for _, opt := range o {
		if strings.EqualFold(strings.TrimSpace(opt.Text), ref) {
			return opt.Key, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 0 && n < len(o) {
		return o[n].Key, true
	}
	return "", false
}

// Map returns the options as a plain map.
func (o Options) Map() map[string]string {
	m := make(map[string]string, len(o))
	for _, opt := range o {
		m[opt.Key] = opt.Text
	}
	return m
}
