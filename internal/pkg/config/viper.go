package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper implements Config on github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads the config file at pathFile and watches it for changes;
// edits are picked up without a restart. The file format is inferred from
// the extension.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()

	filename := path.Base(pathFile)
	name := filename[:len(filename)-len(path.Ext(filename))]
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(path.Base(name))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "err", err)
			return
		}
		slog.Info("config success reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from an in-memory document of the
// given type ("yaml", "json", ...). Tests use this to avoid temp files.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &Viper{v: v}, nil
}

func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

func (vc *Viper) GetInt32(key string) int32 {
	return vc.v.GetInt32(key)
}

func (vc *Viper) GetInt64(key string) int64 {
	return vc.v.GetInt64(key)
}

func (vc *Viper) GetUint(key string) uint {
	return vc.v.GetUint(key)
}

func (vc *Viper) GetUint32(key string) uint32 {
	return vc.v.GetUint32(key)
}

func (vc *Viper) GetUint64(key string) uint64 {
	return vc.v.GetUint64(key)
}

func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

// GetBinary decodes a base64 value, returning nil when the key is absent
// or malformed.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray splits the value on commas.
func (vc *Viper) GetArray(key string) []string {
	return strings.Split(vc.v.GetString(key), ",")
}

// GetMap parses "k1:v1,k2:v2" pairs; entries without a colon are skipped.
func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range strings.Split(vc.v.GetString(key), ",") {
		if k, v, found := strings.Cut(pair, ":"); found {
			m[k] = v
		}
	}
	return m
}

// Close satisfies io.Closer; the watcher goroutine owns no resources that
// need explicit release.
func (vc *Viper) Close() error {
	return nil
}
