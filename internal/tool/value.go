// Package tool defines the Tool Registry and Tool Instance model: the
// identity, settings, and execution contract shared by every batch
// processing step the queue manager can chain together.
package tool

import (
	"encoding/xml"
	"fmt"
)

// Kind tags the concrete representation held by a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindBytes
	KindMap
	// KindUnknown preserves a setting whose shape this build doesn't
	// recognize (forward-compat with newer tool versions): the element's
	// inner XML is kept verbatim and re-emitted on save, under
	// type="unknown" rather than its original type attribute.
	KindUnknown
)

// Value is a closed, cloneable, equality-comparable tagged union over the
// option types a tool's settings can hold: bool, int, double, string,
// byte-sequence, or a nested map of the same. Unknown keys round-trip
// unchanged because KindUnknown retains the original XML bytes.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Map   Settings

	raw []byte // only populated for KindUnknown
}

func BoolValue(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value        { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value    { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value    { return Value{Kind: KindString, Str: s} }
func BytesValue(b []byte) Value     { return Value{Kind: KindBytes, Bytes: append([]byte(nil), b...)} }
func MapValue(m Settings) Value     { return Value{Kind: KindMap, Map: m.Clone()} }
func unknownValue(raw []byte) Value { return Value{Kind: KindUnknown, raw: append([]byte(nil), raw...)} }

// Equal reports whether two values hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindString:
		return v.Str == o.Str
	case KindBytes:
		return string(v.Bytes) == string(o.Bytes)
	case KindMap:
		return v.Map.Equal(o.Map)
	case KindUnknown:
		return string(v.raw) == string(o.raw)
	default:
		return false
	}
}

// Clone returns a deep, independent copy of the value.
func (v Value) Clone() Value {
	c := v
	if v.Kind == KindBytes {
		c.Bytes = append([]byte(nil), v.Bytes...)
	}
	if v.Kind == KindMap {
		c.Map = v.Map.Clone()
	}
	if v.Kind == KindUnknown {
		c.raw = append([]byte(nil), v.raw...)
	}
	return c
}

// Settings is the option-name -> typed-value mapping every Tool Instance
// carries. It is a value type: Clone produces an independent copy and
// Equal is a structural comparison, matching spec.md's "settings are a
// value type -- cloneable, equality-comparable, serializable".
type Settings map[string]Value

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether two settings maps hold identical keys and values.
func (s Settings) Equal(o Settings) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Bool returns the boolean stored at key, or def if absent/wrong-kind.
func (s Settings) Bool(key string, def bool) bool {
	if v, ok := s[key]; ok && v.Kind == KindBool {
		return v.Bool
	}
	return def
}

// Int returns the integer stored at key, or def if absent/wrong-kind.
func (s Settings) Int(key string, def int64) int64 {
	if v, ok := s[key]; ok && v.Kind == KindInt {
		return v.Int
	}
	return def
}

// Float returns the float stored at key, or def if absent/wrong-kind.
func (s Settings) Float(key string, def float64) float64 {
	if v, ok := s[key]; ok && v.Kind == KindFloat {
		return v.Float
	}
	return def
}

// String returns the string stored at key, or def if absent/wrong-kind.
func (s Settings) String(key string, def string) string {
	if v, ok := s[key]; ok && v.Kind == KindString {
		return v.Str
	}
	return def
}

// --- XML round-trip ---------------------------------------------------
//
// Settings persist inside a <settings> element as a flat sequence of typed
// child elements: <entry key="..." type="bool|int|float|string|bytes|map">.
// A map entry nests another <entry> sequence. Unknown/unsupported types
// are kept as KindUnknown, which valueToEntry re-emits as the captured
// raw inner XML under type="unknown", so a round-trip keeps the content.

type xmlEntry struct {
	XMLName xml.Name   `xml:"entry"`
	Key     string     `xml:"key,attr"`
	Type    string     `xml:"type,attr"`
	Text    string     `xml:",chardata"`
	Bytes   []byte     `xml:"bytes,omitempty"`
	Entries []xmlEntry `xml:"entry,omitempty"`
	Inner   []byte     `xml:",innerxml"`
}

// MarshalXML implements xml.Marshaler for Settings so a <settings> element
// can be embedded directly in the Workflow Store document (§6).
func (s Settings) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "settings"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for key, v := range s {
		entry, err := valueToEntry(key, v)
		if err != nil {
			return err
		}
		if err := e.Encode(entry); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func valueToEntry(key string, v Value) (xmlEntry, error) {
	entry := xmlEntry{Key: key}
	switch v.Kind {
	case KindBool:
		entry.Type = "bool"
		if v.Bool {
			entry.Text = "true"
		} else {
			entry.Text = "false"
		}
	case KindInt:
		entry.Type = "int"
		entry.Text = fmt.Sprintf("%d", v.Int)
	case KindFloat:
		entry.Type = "float"
		entry.Text = fmt.Sprintf("%g", v.Float)
	case KindString:
		entry.Type = "string"
		entry.Text = v.Str
	case KindBytes:
		entry.Type = "bytes"
		entry.Bytes = v.Bytes
	case KindMap:
		entry.Type = "map"
		for k, mv := range v.Map {
			sub, err := valueToEntry(k, mv)
			if err != nil {
				return entry, err
			}
			entry.Entries = append(entry.Entries, sub)
		}
	case KindUnknown:
		entry.Type = "unknown"
		entry.Inner = v.raw
	default:
		return entry, fmt.Errorf("tool: unsupported value kind %d for key %q", v.Kind, key)
	}
	return entry, nil
}

// UnmarshalXML implements xml.Unmarshaler.
func (s *Settings) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	out := Settings{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "entry" {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var entry xmlEntry
			if err := d.DecodeElement(&entry, &t); err != nil {
				return err
			}
			v, err := entryToValue(entry)
			if err != nil {
				return err
			}
			out[entry.Key] = v
		case xml.EndElement:
			*s = out
			return nil
		}
	}
}

func entryToValue(entry xmlEntry) (Value, error) {
	switch entry.Type {
	case "bool":
		return BoolValue(entry.Text == "true"), nil
	case "int":
		var i int64
		if _, err := fmt.Sscanf(entry.Text, "%d", &i); err != nil {
			return Value{}, fmt.Errorf("tool: decode int entry %q: %w", entry.Key, err)
		}
		return IntValue(i), nil
	case "float":
		var f float64
		if _, err := fmt.Sscanf(entry.Text, "%g", &f); err != nil {
			return Value{}, fmt.Errorf("tool: decode float entry %q: %w", entry.Key, err)
		}
		return FloatValue(f), nil
	case "string":
		return StringValue(entry.Text), nil
	case "bytes":
		return BytesValue(entry.Bytes), nil
	case "map":
		m := Settings{}
		for _, sub := range entry.Entries {
			v, err := entryToValue(sub)
			if err != nil {
				return Value{}, err
			}
			m[sub.Key] = v
		}
		return MapValue(m), nil
	default:
		return unknownValue(entry.Inner), nil
	}
}
