package fileb64

import (
	"errors"
	"time"

	"github.com/ppipada/fileb64-go/encdec"
	"github.com/ppipada/fileb64-go/internal/fsutil"
)

// Error kinds. Callers match them with errors.Is; messages carry the detail.
var (
	// ErrNotFound is when the source path for an encode does not exist.
	ErrNotFound = fsutil.ErrNotFound
	// ErrEmptyPath is when a path argument is empty and no stored path can stand in.
	ErrEmptyPath = fsutil.ErrEmptyPath
	// ErrNotRegularFile is when a source path refers to a directory or other non-regular entry.
	ErrNotRegularFile = fsutil.ErrNotRegularFile
	// ErrNoBase64String is when decode runs with no base64 string held or supplied.
	ErrNoBase64String = errors.New("fileb64: no base64 string stored")
	// ErrInvalidBase64 is when a held or supplied string fails the base64 alphabet/padding rules.
	ErrInvalidBase64 = encdec.ErrInvalidBase64
	// ErrTypeMismatch is when a non-text value arrives where text was required.
	ErrTypeMismatch = encdec.ErrTypeMismatch
)

// Operation is the kind of mutation that happened on the converter state.
type Operation string

const (
	OpEncode    Operation = "encode"
	OpDecode    Operation = "decode"
	OpSetString Operation = "setString"
	OpSetPath   Operation = "setPath"
)

// ConvertEvent is delivered *after* a mutation has taken effect.
type ConvertEvent struct {
	Op Operation
	// Path read (encode) or written (decode); the new path for OpSetPath, empty for OpSetString.
	Path string
	// Length in characters of the held base64 string after the mutation.
	Chars int
	// Raw payload size in bytes; zero for OpSetPath.
	Bytes     int
	Timestamp time.Time
}

// ConvertListener is a callback that observes successful operations.
type ConvertListener func(ConvertEvent)
