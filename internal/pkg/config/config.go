package config

import (
	"io"
	"time"
)

// Config reads typed configuration values by dotted key. Implementations
// return the type's zero value for missing or unconvertible keys, so
// callers validate required settings at wiring time instead of per read.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond and GetMinute read an integer key as a duration in the
	// named unit, so config files stay plain numbers.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary reads a base64-encoded value.
	GetBinary(key string) []byte

	// GetArray reads a comma-separated value: "a,b,c".
	GetArray(key string) []string

	// GetMap reads comma-separated key:value pairs: "+62:11,+1:10".
	GetMap(key string) map[string]string
}
