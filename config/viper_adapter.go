/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ViperAdapter implements DataProvider on top of viper.
// The action server uses it to merge command-line flags, ACTION_SERVER_* environment variables
// and YAML documents (endpoints, logging config) into a single key space.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ DataProvider = (*ViperAdapter)(nil)

// NewViperAdapter returns an adapter over a fresh viper instance.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper.New()}
}

// UseEnvVars makes every key readable from an environment variable with the upper-cased prefix.
// Dots and dashes of the key become underscores, so with the "action_server" prefix
// "ssl-keyfile" is read from ACTION_SERVER_SSL_KEYFILE and "profserver.enabled" from ACTION_SERVER_PROFSERVER_ENABLED.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.AutomaticEnv()
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	va.viper.SetEnvPrefix(prefix)
}

// BindFlags binds every flag of the set to the key with the same name.
// A flag that was set on the command line has priority over environment variables and config files,
// an unset flag only provides a default value.
func (va *ViperAdapter) BindFlags(fs *pflag.FlagSet) error {
	return va.viper.BindPFlags(fs)
}

// Set overrides the value of the key regardless of other sources.
func (va *ViperAdapter) Set(key string, value interface{}) {
	va.viper.Set(key, value)
}

// SetDefault sets the value used when none of the sources provides one.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(key, value)
}

// IsSet reports whether the key has a value in any source. Keys are case-insensitive.
func (va *ViperAdapter) IsSet(key string) bool {
	return va.viper.IsSet(key)
}

// Get returns the raw value of the key.
func (va *ViperAdapter) Get(key string) interface{} {
	return va.viper.Get(key)
}

// SetFromFile reads configuration data from the file.
func (va *ViperAdapter) SetFromFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// SetFromReader reads configuration data of the given format from the reader.
func (va *ViperAdapter) SetFromReader(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

// castValue converts the value stored under the key and binds a conversion error to the key.
// A missing value is converted as well, so the zero value of T is returned for it.
func castValue[T any](va *ViperAdapter, key string, conv func(interface{}) (T, error)) (T, error) {
	res, err := conv(va.Get(key))
	return res, WrapKeyErrIfNeeded(key, err)
}

// GetInt returns the value of the key as an int.
func (va *ViperAdapter) GetInt(key string) (int, error) {
	return castValue(va, key, cast.ToIntE)
}

// GetString returns the value of the key as a string.
func (va *ViperAdapter) GetString(key string) (string, error) {
	return castValue(va, key, cast.ToStringE)
}

// GetBool returns the value of the key as a bool ("true", "1", "false", "0" etc. are accepted for strings).
func (va *ViperAdapter) GetBool(key string) (bool, error) {
	return castValue(va, key, cast.ToBoolE)
}

// GetStringSlice returns the value of the key as a slice of strings, or nil if the key has no value.
func (va *ViperAdapter) GetStringSlice(key string) ([]string, error) {
	if !va.hasValue(key) {
		return nil, nil
	}
	return castValue(va, key, cast.ToStringSliceE)
}

// GetStringFromSet returns the value of the key if it's one of the allowed values.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", WrapKeyErrIfNeeded(key, err)
	}
	for _, allowed := range set {
		if str == allowed || (ignoreCase && strings.EqualFold(str, allowed)) {
			return str, nil
		}
	}
	return "", WrapKeyErrIfNeeded(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// GetDuration returns the value of the key as a time.Duration. Strings are parsed by time.ParseDuration
// and integers are treated as nanoseconds.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	if !va.hasValue(key) {
		return 0, nil
	}
	return castValue(va, key, cast.ToDurationE)
}

func (va *ViperAdapter) hasValue(key string) bool {
	return va.Get(key) != nil
}

// GetByteSize tries to retrieve the value associated with the key as a size in bytes.
// Both integers and human-readable strings ("4MB", "512Ki") are accepted.
func (va *ViperAdapter) GetByteSize(key string) (ByteSize, error) {
	if !va.hasValue(key) {
		return 0, nil
	}
	val := va.Get(key)
	switch v := val.(type) {
	case string:
		bs, err := parseByteSize(v)
		return bs, WrapKeyErrIfNeeded(key, err)
	case ByteSize:
		return v, nil
	}
	num, err := cast.ToInt64E(val)
	if err != nil {
		return 0, WrapKeyErr(key, err)
	}
	if num < 0 {
		return 0, WrapKeyErr(key, fmt.Errorf("negative value is not allowed: %d", num))
	}
	return ByteSize(num), nil
}

// Unmarshal decodes all configuration data into the struct using mapstructure.
func (va *ViperAdapter) Unmarshal(rawVal interface{}, opts ...DecoderConfigOption) error {
	return va.viper.Unmarshal(rawVal, viperDecoderOptions(opts)...)
}

// UnmarshalKey decodes the configuration data under the key into the struct using mapstructure.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	return WrapKeyErrIfNeeded(key, va.viper.UnmarshalKey(key, rawVal, viperDecoderOptions(opts)...))
}

func viperDecoderOptions(opts []DecoderConfigOption) []viper.DecoderConfigOption {
	res := make([]viper.DecoderConfigOption, 0, len(opts))
	for _, opt := range opts {
		res = append(res, viper.DecoderConfigOption(opt))
	}
	return res
}

// WrapKeyErr prefixes the error with the key.
func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}
