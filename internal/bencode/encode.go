package bencode

import (
	"bytes"
	"sort"
	"strconv"
)

// Encode produces the canonical bencode serialization of v. Encode is
// total: every Value constructed through the package constructors encodes
// without error.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindBytes:
		writeString(buf, v.bytes)
	case KindInteger:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(v.integer, 10))
		buf.WriteByte('e')
	case KindList:
		buf.WriteByte('l')
		for _, item := range v.list {
			writeValue(buf, item)
		}
		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')
		keys := make([]string, 0, len(v.dict))
		for k := range v.dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeString(buf, []byte(k))
			writeValue(buf, v.dict[k])
		}
		buf.WriteByte('e')
	}
}

func writeString(buf *bytes.Buffer, b []byte) {
	buf.WriteString(strconv.Itoa(len(b)))
	buf.WriteByte(':')
	buf.Write(b)
}
