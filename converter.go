package fileb64

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ppipada/fileb64-go/convlog"
	"github.com/ppipada/fileb64-go/encdec"
	"github.com/ppipada/fileb64-go/internal/fsutil"
)

// Converter turns a file's bytes into standard-alphabet base64 text and back.
// It holds the most recent base64 string and the most recent file path it
// touched; both are overwritten by each new operation and never cleared.
//
// An instance is meant to have a single owner. All state is mutex-guarded, so
// concurrent sharing degrades to last-writer-wins rather than a data race.
type Converter struct {
	mu     sync.RWMutex
	b64    string
	hasB64 bool
	path   string

	// Validate base64 on seed/set instead of at decode time.
	eager     bool
	listeners []ConvertListener
	journal   *convlog.Journal

	codec encdec.Base64BytesEncoderDecoder
}

// Option defines a function type that applies a configuration option to the Converter.
type Option func(*Converter)

// WithBase64String seeds the held base64 string. The seed is lenient: it is
// validated when it is first decoded, unless WithEagerValidation is also set.
func WithBase64String(s string) Option {
	return func(c *Converter) {
		c.b64 = s
		c.hasB64 = true
	}
}

// WithFilePath seeds the held file path.
func WithFilePath(p string) Option {
	return func(c *Converter) { c.path = p }
}

// WithEagerValidation makes the constructor and SetBase64String reject
// malformed base64 immediately instead of deferring to decode time.
func WithEagerValidation(eager bool) Option {
	return func(c *Converter) { c.eager = eager }
}

// WithListeners registers one or more listeners during construction.
func WithListeners(ls ...ConvertListener) Option {
	return func(c *Converter) { c.listeners = append(c.listeners, ls...) }
}

// WithJournal attaches a persistent conversion journal. Journal write
// failures are logged and never fail the conversion itself.
func WithJournal(j *convlog.Journal) Option {
	return func(c *Converter) { c.journal = j }
}

// New initializes a Converter. Seeding errors (an unusable seed path, or a
// malformed seed string under eager validation) surface here.
func New(opts ...Option) (*Converter, error) {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}

	if c.path != "" {
		p, err := fsutil.NormalizePath(c.path)
		if err != nil {
			return nil, err
		}
		c.path = p
	}
	if c.eager && c.hasB64 {
		if err := encdec.Validate(c.b64); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Encode reads the regular file at path, stores its base64 form and the path,
// and returns the base64 string. The output uses the standard alphabet with
// '=' padding and contains no line breaks.
func (c *Converter) Encode(path string) (string, error) {
	p, err := fsutil.NormalizePath(path)
	if err != nil {
		return "", err
	}
	return c.encodeFile(p)
}

// Decode writes the decoded bytes of the held base64 string to dst,
// creating missing parent directories, and returns the written path.
// The held string is validated in full before any byte reaches disk.
func (c *Converter) Decode(dst string) (string, error) {
	c.mu.RLock()
	b64, ok := c.b64, c.hasB64
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("decode: %w", ErrNoBase64String)
	}

	p, err := fsutil.NormalizePath(dst)
	if err != nil {
		return "", err
	}
	return c.decodeTo(b64, p)
}

// FileToBase64 is the verbose form of Encode. An empty path falls back to the
// held path; it fails when neither is available.
func (c *Converter) FileToBase64(path string) (string, error) {
	if path == "" {
		c.mu.RLock()
		path = c.path
		c.mu.RUnlock()
	}
	if path == "" {
		return "", fmt.Errorf("no source path given and none stored: %w", ErrEmptyPath)
	}

	p, err := fsutil.NormalizePath(path)
	if err != nil {
		return "", err
	}
	return c.encodeFile(p)
}

// Base64ToFile is the verbose form of Decode. An empty b64 falls back to the
// held string and an empty dst to the held path; it fails when a needed value
// is available from neither. A supplied b64 becomes the held string on
// success, same storage semantics as Decode.
func (c *Converter) Base64ToFile(b64, dst string) (string, error) {
	useHeld := b64 == ""
	c.mu.RLock()
	if useHeld {
		b64 = c.b64
	}
	hasB64 := !useHeld || c.hasB64
	if dst == "" {
		dst = c.path
	}
	c.mu.RUnlock()

	if !hasB64 {
		return "", fmt.Errorf("no base64 string given and none stored: %w", ErrNoBase64String)
	}
	if dst == "" {
		return "", fmt.Errorf("no destination path given and none stored: %w", ErrEmptyPath)
	}

	p, err := fsutil.NormalizePath(dst)
	if err != nil {
		return "", err
	}
	return c.decodeTo(b64, p)
}

// Base64String returns the held base64 string, empty if none is held.
func (c *Converter) Base64String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.b64
}

// SetBase64String replaces the held base64 string. By default the value is
// stored as-is and validated at decode time; under WithEagerValidation it is
// validated here.
func (c *Converter) SetBase64String(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("base64 string must be valid text: %w", ErrTypeMismatch)
	}
	if c.eager {
		if err := encdec.Validate(s); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.b64 = s
	c.hasB64 = true
	c.mu.Unlock()

	c.fireEvent(ConvertEvent{
		Op:        OpSetString,
		Chars:     len(s),
		Timestamp: time.Now(),
	})
	return nil
}

// FilePath returns the held file path, empty if none is held.
func (c *Converter) FilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// SetFilePath replaces the held file path with the normalized form of p.
// The path is not required to exist until it is used.
func (c *Converter) SetFilePath(p string) error {
	np, err := fsutil.NormalizePath(p)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.path = np
	c.mu.Unlock()

	c.fireEvent(ConvertEvent{
		Op:        OpSetPath,
		Path:      np,
		Timestamp: time.Now(),
	})
	return nil
}

// String summarizes the held state without exposing the payload.
func (c *Converter) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var parts []string
	if c.b64 != "" {
		parts = append(parts, fmt.Sprintf("base64: %d chars", len(c.b64)))
	}
	if c.path != "" {
		parts = append(parts, "path: "+c.path)
	}
	if len(parts) == 0 {
		return "Converter(empty)"
	}
	return "Converter(" + strings.Join(parts, ", ") + ")"
}

// encodeFile expects a normalized path.
func (c *Converter) encodeFile(path string) (string, error) {
	if err := fsutil.RequireRegularFile(path); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	enc := c.codec.Encode(raw)

	c.mu.Lock()
	c.b64 = enc
	c.hasB64 = true
	c.path = path
	c.mu.Unlock()

	c.fireEvent(ConvertEvent{
		Op:        OpEncode,
		Path:      path,
		Chars:     len(enc),
		Bytes:     len(raw),
		Timestamp: time.Now(),
	})
	return enc, nil
}

// decodeTo expects a normalized destination path. The write is atomic, a
// failed decode never leaves a partial file at dst.
func (c *Converter) decodeTo(b64, dst string) (string, error) {
	raw, err := c.codec.Decode(b64)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(dst, raw); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.b64 = b64
	c.hasB64 = true
	c.path = dst
	c.mu.Unlock()

	c.fireEvent(ConvertEvent{
		Op:        OpDecode,
		Path:      dst,
		Chars:     len(b64),
		Bytes:     len(raw),
		Timestamp: time.Now(),
	})
	return dst, nil
}

// fireEvent delivers e to all listeners, recovering from panics so that a
// faulty observer cannot crash the converter, then records the journal entry.
func (c *Converter) fireEvent(e ConvertEvent) {
	for _, l := range c.listeners {
		if l == nil {
			continue
		}
		func(cb ConvertListener) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error(
						"fileb64 listener panic",
						"err",
						r,
						"event",
						e,
						"stack",
						string(debug.Stack()),
					)
				}
			}()
			cb(e)
		}(l)
	}

	if c.journal != nil {
		entry := convlog.Entry{
			Op:    string(e.Op),
			Path:  e.Path,
			Chars: e.Chars,
			Bytes: e.Bytes,
			At:    e.Timestamp,
		}
		if _, err := c.journal.Record(context.Background(), entry); err != nil {
			slog.Error("fileb64 journal record failed", "op", e.Op, "err", err)
		}
	}
}
