package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/patql/patql.toml
	SourceUser        ConfigSource = "user"        // ~/.patql/patql.toml
	SourceProject     ConfigSource = "project"     // nearest patql.toml above the working directory
	SourceEnvironment ConfigSource = "environment" // PATQL_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Introspection describes the active configuration and where each value came from
type Introspection struct {
	Files    []string      `json:"files" yaml:"files"`
	Settings []SettingInfo `json:"settings" yaml:"settings"`
}

// Introspect returns every effective setting, sorted by key, with its source.
func Introspect() *Introspection {
	mu.Lock()
	defer mu.Unlock()

	v := initViper()
	keys := v.AllKeys()
	sort.Strings(keys)

	result := &Introspection{
		Files:    append([]string(nil), loadedFiles...),
		Settings: make([]SettingInfo, 0, len(keys)),
	}
	for _, key := range keys {
		result.Settings = append(result.Settings, describeSetting(key, v.Get(key), loadedSources))
	}
	return result
}

// Lookup returns the effective value and source of a single key.
func Lookup(key string) (SettingInfo, bool) {
	mu.Lock()
	defer mu.Unlock()

	v := initViper()
	key = strings.ToLower(key)
	if !v.IsSet(key) {
		return SettingInfo{}, false
	}
	return describeSetting(key, v.Get(key), loadedSources), true
}

func describeSetting(key string, value interface{}, sources map[string]SourceInfo) SettingInfo {
	info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
	if si, ok := sources[key]; ok {
		info = si
	}

	envKey := EnvVar(key)
	if _, ok := os.LookupEnv(envKey); ok {
		info = SourceInfo{Source: SourceEnvironment, Path: envKey}
	}

	return SettingInfo{
		Key:        key,
		Value:      value,
		Source:     info.Source,
		SourcePath: info.Path,
	}
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
