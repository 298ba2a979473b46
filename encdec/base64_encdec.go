package encdec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidBase64 is when a string fails the standard base64 alphabet/padding rules.
	ErrInvalidBase64 = errors.New("encdec: invalid base64 string")
	// ErrTypeMismatch is when an any-typed codec value is neither text nor bytes.
	ErrTypeMismatch = errors.New("encdec: value has wrong type")
)

// Base64BytesEncoderDecoder converts raw bytes to standard-alphabet base64
// text (RFC 4648, '=' padding, no line wrapping) and back. Decode is strict:
// illegal characters, wrong padding and lengths that are not a multiple of 4
// are all rejected.
type Base64BytesEncoderDecoder struct{}

func (b Base64BytesEncoderDecoder) Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func (b Base64BytesEncoderDecoder) Decode(encoded string) ([]byte, error) {
	if err := Validate(encoded); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBase64, err.Error())
	}
	return raw, nil
}

// Base64StringEncoderDecoder is a simple StringEncoderDecoder that uses base64.
type Base64StringEncoderDecoder struct{}

func (b Base64StringEncoderDecoder) Encode(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

func (b Base64StringEncoderDecoder) Decode(encoded string) (string, error) {
	raw, err := Base64BytesEncoderDecoder{}.Decode(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to base64-decode %q: %w", encoded, err)
	}
	return string(raw), nil
}

// Validate checks that s is syntactically valid standard base64. The empty
// string is valid (it decodes to zero bytes).
func Validate(s string) error {
	if len(s)%4 != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of 4", ErrInvalidBase64, len(s))
	}
	// The stdlib decoder silently skips \r and \n, the contract here does not.
	for i := 0; i < len(s); i++ {
		if !isBase64Char(s[i]) {
			return fmt.Errorf("%w: illegal character %q at offset %d", ErrInvalidBase64, s[i], i)
		}
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBase64, err.Error())
	}
	return nil
}

func isBase64Char(c byte) bool {
	return c >= 'A' && c <= 'Z' ||
		c >= 'a' && c <= 'z' ||
		c >= '0' && c <= '9' ||
		c == '+' || c == '/' || c == '='
}

// Base64IOEncoderDecoder is an IOEncoderDecoder that writes the base64 text
// of a string or byte value and reads it back.
type Base64IOEncoderDecoder struct{}

func (e Base64IOEncoderDecoder) Encode(w io.Writer, value any) error {
	if w == nil {
		return errors.New("writer cannot be nil")
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%w: got %T, want string or []byte", ErrTypeMismatch, value)
	}

	_, err := io.WriteString(w, base64.StdEncoding.EncodeToString(raw))
	return err
}

func (e Base64IOEncoderDecoder) Decode(r io.Reader, value any) error {
	if r == nil {
		return errors.New("reader cannot be nil")
	}

	encoded, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	raw, err := Base64BytesEncoderDecoder{}.Decode(string(encoded))
	if err != nil {
		return err
	}

	switch v := value.(type) {
	case *[]byte:
		*v = raw
	case *string:
		*v = string(raw)
	case *any:
		*v = raw
	default:
		return fmt.Errorf("%w: got %T, want *string, *[]byte or *any", ErrTypeMismatch, value)
	}
	return nil
}
