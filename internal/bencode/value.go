// Package bencode implements BEP-3 encoding: a tagged sum of byte strings,
// signed integers, lists and dictionaries, plus a total Encode function and
// a Decode function that fails with a specific error kind per malformed
// input.
package bencode

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which of the four bencode value shapes a Value holds.
type Kind int

const (
	KindBytes Kind = iota
	KindInteger
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "Bytes"
	case KindInteger:
		return "Integer"
	case KindList:
		return "List"
	case KindDict:
		return "Dict"
	default:
		return "Unknown"
	}
}

// Value is a bencode value. The zero Value is an empty byte string.
type Value struct {
	kind    Kind
	bytes   []byte
	integer int64
	list    []Value
	dict    map[string]Value
}

func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytes: cp}
}

func String(s string) Value {
	return Bytes([]byte(s))
}

func Integer(n int64) Value {
	return Value{kind: KindInteger, integer: n}
}

func List(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

func Dict(m map[string]Value) Value {
	return Value{kind: KindDict, dict: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindBytes {
		return "", false
	}
	return string(v.bytes), true
}

func (v Value) AsInteger() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.integer, true
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsDict() (map[string]Value, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	return v.dict, true
}

// Get looks up a key in a Dict value. Returns false if v is not a Dict or
// the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindDict {
		return Value{}, false
	}
	val, ok := v.dict[key]
	return val, ok
}

func (v Value) String() string {
	switch v.kind {
	case KindBytes:
		return fmt.Sprintf("%q", v.bytes)
	case KindInteger:
		return fmt.Sprintf("%d", v.integer)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		keys := make([]string, 0, len(v.dict))
		for k := range v.dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, v.dict[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid>"
	}
}
