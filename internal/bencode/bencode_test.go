package bencode

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeInteger(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		isErr   bool
		wantErr ErrorKind
	}{
		{name: "negative", input: "i-123e", want: -123},
		{name: "zero", input: "i0e", want: 0},
		{name: "positive", input: "i123e", want: 123},
		{name: "oversized", input: "i-100000000000000000000e", isErr: true, wantErr: OversizedInteger},
		{name: "leading zero", input: "i01e", isErr: true, wantErr: ExpectedInteger},
		{name: "negative zero", input: "i-0e", isErr: true, wantErr: ExpectedInteger},
		{name: "no digits", input: "ie", isErr: true, wantErr: ExpectedInteger},
		{name: "missing end", input: "i123", isErr: true, wantErr: ExpectedIntegerEnd},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, rest, err := Decode([]byte(tc.input))
			if tc.isErr {
				var derr *DecoderError
				if !errors.As(err, &derr) {
					t.Fatalf("Decode(%q) error = %v, want DecoderError", tc.input, err)
				}
				if derr.Kind != tc.wantErr {
					t.Fatalf("Decode(%q) kind = %v, want %v", tc.input, derr.Kind, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tc.input, err)
			}
			if len(rest) != 0 {
				t.Fatalf("Decode(%q) rest = %q, want empty", tc.input, rest)
			}
			got, ok := v.AsInteger()
			if !ok || got != tc.want {
				t.Fatalf("Decode(%q) = %v, want Integer(%d)", tc.input, v, tc.want)
			}
		})
	}
}

func TestDecodeBytestring(t *testing.T) {
	v, rest, err := Decode([]byte("3:abcxyz"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.AsBytes()
	if !ok || string(got) != "abc" {
		t.Fatalf("got %v, want Bytes(\"abc\")", v)
	}
	if string(rest) != "xyz" {
		t.Fatalf("rest = %q, want %q", rest, "xyz")
	}
}

func TestDecodeBytestringInvalidSize(t *testing.T) {
	_, _, err := Decode([]byte("10:ab"))
	var derr *DecoderError
	if !errors.As(err, &derr) || derr.Kind != InvalidStringSize {
		t.Fatalf("err = %v, want InvalidStringSize", err)
	}
}

func TestDecodeDictRoundTrip(t *testing.T) {
	input := "d3:one5:hello3:twoi123ee"

	v, rest, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %q, want empty", rest)
	}

	dict, ok := v.AsDict()
	if !ok {
		t.Fatalf("not a dict: %v", v)
	}

	one, ok := dict["one"].AsBytes()
	if !ok || string(one) != "hello" {
		t.Fatalf("dict[one] = %v, want Bytes(hello)", dict["one"])
	}
	two, ok := dict["two"].AsInteger()
	if !ok || two != 123 {
		t.Fatalf("dict[two] = %v, want Integer(123)", dict["two"])
	}

	if got := Encode(v); string(got) != input {
		t.Fatalf("re-encode = %q, want %q", got, input)
	}
}

func TestDecodeDictRejectsNonStringKey(t *testing.T) {
	_, _, err := Decode([]byte("di1ei2ee"))
	var derr *DecoderError
	if !errors.As(err, &derr) || derr.Kind != ExpectedStringKey {
		t.Fatalf("err = %v, want ExpectedStringKey", err)
	}
}

func TestDecodeListRoundTrip(t *testing.T) {
	input := "l4:spam4:eggse"
	v, rest, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %q, want empty", rest)
	}

	list, ok := v.AsList()
	if !ok || len(list) != 2 {
		t.Fatalf("got %v, want 2-element list", v)
	}

	if got := Encode(v); string(got) != input {
		t.Fatalf("re-encode = %q, want %q", got, input)
	}
}

func TestDecodeUnexpectedStartOfValue(t *testing.T) {
	_, _, err := Decode([]byte("x"))
	var derr *DecoderError
	if !errors.As(err, &derr) || derr.Kind != UnexpectedStartOfValue {
		t.Fatalf("err = %v, want UnexpectedStartOfValue", err)
	}
}

func TestDecodeEmptyInputIsEndOfStream(t *testing.T) {
	_, _, err := Decode(nil)
	var derr *DecoderError
	if !errors.As(err, &derr) || derr.Kind != EndOfStream {
		t.Fatalf("err = %v, want EndOfStream", err)
	}
}

func TestEncodeDictSortsKeys(t *testing.T) {
	v := Dict(map[string]Value{
		"zebra": Integer(1),
		"apple": Integer(2),
	})

	got := Encode(v)
	want := "d5:applei2e5:zebrai1ee"
	if string(got) != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestRoundTripArbitraryValue(t *testing.T) {
	v := Dict(map[string]Value{
		"id":    Bytes(bytes.Repeat([]byte{0xAB}, 20)),
		"nodes": List(Integer(1), Integer(2), String("x")),
	})

	encoded := Encode(v)
	decoded, rest, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %q, want empty", rest)
	}
	if !bytes.Equal(Encode(decoded), encoded) {
		t.Fatalf("re-encode mismatch: got %q, want %q", Encode(decoded), encoded)
	}
}
