package encdec

import "io"

// IOEncoderDecoder is an interface that defines methods for encoding and decoding data.
type IOEncoderDecoder interface {
	Encode(w io.Writer, value any) error
	Decode(r io.Reader, value any) error
}

// StringEncoderDecoder encodes and decodes a string to another string.
type StringEncoderDecoder interface {
	Encode(plain string) string
	Decode(encoded string) (string, error)
}

// BytesEncoderDecoder encodes a raw byte payload to its textual form and back.
type BytesEncoderDecoder interface {
	Encode(raw []byte) string
	Decode(encoded string) ([]byte, error)
}
