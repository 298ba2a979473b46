package convlog

import "time"

const MemoryDBBaseDir = ":memory:"

// Entry is one recorded conversion. Payload bytes are never stored, only the
// operation shape: kind, path and sizes.
type Entry struct {
	// UUIDv7, assigned by Record. Sorts by creation time.
	ID string
	// Operation kind, e.g. "encode" or "decode".
	Op string
	// Source path for encodes, destination path for decodes.
	Path string
	// Length in characters of the base64 text.
	Chars int
	// Raw payload size in bytes.
	Bytes int
	At    time.Time
}

type Config struct {
	BaseDir    string `json:"baseDir"`
	DBFileName string `json:"dbFileName"`
	Table      string `json:"table"`
}
