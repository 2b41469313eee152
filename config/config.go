// Package config holds the runtime's key/value configuration.
//
// Values are layered, lowest precedence first:
//
//	defaults < config/app.json < config/app.yaml < .env < process env < overrides
//
// Keys are upper-case with underscores. "server.port" and "server-port" are
// both read as SERVER_PORT.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	KeyAppName            = "APP_NAME"
	KeyAppEnv             = "APP_ENV"
	KeyAppHost            = "APP_HOST"
	KeyAppPort            = "APP_PORT"
	KeySecurityAutoconfig = "SECURITY_AUTOCONFIG"
	KeySecurityUser       = "SECURITY_USER"
	KeySecurityPassword   = "SECURITY_PASSWORD"
	KeyJWTSecret          = "JWT_SECRET"
	KeyShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	KeyShutdownEndpoint   = "SHUTDOWN_ENDPOINT"
	KeyRateLimit          = "RATE_LIMIT"
	KeyCORSOrigins        = "CORS_ORIGINS"
	KeySleepMaxMs         = "SLEEP_MAX_MS"
)

const masked = "******"

// maxSleepMs keeps a millisecond count representable as a time.Duration.
const maxSleepMs = math.MaxInt64 / int64(time.Millisecond)

func defaultValues() map[string]string {
	return map[string]string{
		KeyAppName:            "app",
		KeyAppEnv:             "local",
		KeyAppHost:            "",
		KeyAppPort:            "8080",
		KeySecurityAutoconfig: "true",
		KeySecurityUser:       "user",
		KeySecurityPassword:   "",
		KeyJWTSecret:          "",
		KeyShutdownTimeout:    "5s",
		KeyShutdownEndpoint:   "false",
		KeyRateLimit:          "0",
		KeyCORSOrigins:        "*",
		KeySleepMaxMs:         "60000",
	}
}

// Config is a concurrency-safe set of configuration values.
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns a Config holding only the built-in defaults.
func New() *Config {
	return &Config{values: defaultValues()}
}

// Load builds a Config from defaults, the files in dir, the dotenv file at
// envPath and the process environment. Missing files are skipped.
func Load(dir, envPath string) (*Config, error) {
	c := New()
	if err := c.MergeFiles(dir, envPath); err != nil {
		return nil, err
	}
	c.MergeEnv(os.LookupEnv)
	return c, nil
}

// MergeFiles layers app.json, app.yaml (both in dir) and the dotenv file on
// top of the current values.
func (c *Config) MergeFiles(dir, envPath string) error {
	loaded := make(map[string]string)

	if err := mergeJSONConfig(filepath.Join(dir, "app.json"), loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeYAMLConfig(filepath.Join(dir, "app.yaml"), loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if envPath != "" {
		if err := mergeDotEnv(envPath, loaded); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	c.mu.Lock()
	for k, v := range loaded {
		c.values[k] = v
	}
	c.mu.Unlock()
	return nil
}

// MergeEnv copies every known key that is present in the environment.
func (c *Config) MergeEnv(lookup func(string) (string, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range defaultValues() {
		if v, ok := lookup(key); ok {
			c.values[key] = strings.TrimSpace(v)
		}
	}
}

// Set stores value under key, replacing anything loaded before.
func (c *Config) Set(key, value string) {
	k := NormalizeKey(key)
	if k == "" {
		return
	}
	c.mu.Lock()
	c.values[k] = strings.TrimSpace(value)
	c.mu.Unlock()
}

// ParseOverride splits a KEY=VALUE command-line override.
func ParseOverride(pair string) (string, string, error) {
	idx := strings.IndexByte(pair, '=')
	if idx <= 0 {
		return "", "", fmt.Errorf("override %q: expected KEY=VALUE", pair)
	}
	key := NormalizeKey(pair[:idx])
	if key == "" {
		return "", "", fmt.Errorf("override %q: empty key", pair)
	}
	return key, pair[idx+1:], nil
}

// NormalizeKey upper-cases key and maps '.' and '-' to '_'.
func NormalizeKey(key string) string {
	k := strings.ToUpper(strings.TrimSpace(key))
	return strings.NewReplacer(".", "_", "-", "_").Replace(k)
}

// Get reads any key with a fallback for empty or missing values.
func (c *Config) Get(key, fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if value := strings.TrimSpace(c.values[NormalizeKey(key)]); value != "" {
		return value
	}
	return fallback
}

// String reads key, falling back to its built-in default.
func (c *Config) String(key string) string {
	return c.Get(key, defaultValues()[NormalizeKey(key)])
}

// Int reads key as an integer. Unparsable values yield the default.
func (c *Config) Int(key string) int {
	if n, err := strconv.Atoi(c.String(key)); err == nil {
		return n
	}
	n, _ := strconv.Atoi(defaultValues()[NormalizeKey(key)])
	return n
}

// Bool reads key as a boolean. Unparsable values yield the default.
func (c *Config) Bool(key string) bool {
	if b, err := strconv.ParseBool(c.String(key)); err == nil {
		return b
	}
	b, _ := strconv.ParseBool(defaultValues()[NormalizeKey(key)])
	return b
}

// Duration reads key as a time.Duration. A bare integer is taken as seconds.
func (c *Config) Duration(key string) time.Duration {
	if d, err := parseDuration(c.String(key)); err == nil {
		return d
	}
	d, _ := parseDuration(defaultValues()[NormalizeKey(key)])
	return d
}

// Strings reads key as a comma separated list, dropping empty items.
func (c *Config) Strings(key string) []string {
	var out []string
	for _, part := range strings.Split(c.String(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports typed keys whose values cannot be parsed.
func (c *Config) Validate() error {
	var bad []string

	for _, key := range []string{KeyAppPort, KeyRateLimit, KeySleepMaxMs} {
		if n, err := strconv.Atoi(c.String(key)); err != nil || n < 0 {
			bad = append(bad, key)
		}
	}
	if n, err := strconv.ParseInt(c.String(KeySleepMaxMs), 10, 64); err == nil && n > maxSleepMs {
		bad = append(bad, KeySleepMaxMs)
	}
	for _, key := range []string{KeySecurityAutoconfig, KeyShutdownEndpoint} {
		if _, err := strconv.ParseBool(c.String(key)); err != nil {
			bad = append(bad, key)
		}
	}
	if _, err := parseDuration(c.String(KeyShutdownTimeout)); err != nil {
		bad = append(bad, KeyShutdownTimeout)
	}

	if len(bad) > 0 {
		return fmt.Errorf("config: invalid value for %s", strings.Join(bad, ", "))
	}
	return nil
}

// Effective returns a copy of every value with secrets masked.
func (c *Config) Effective() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		if isSecret(k) && v != "" {
			v = masked
		}
		out[k] = v
	}
	return out
}

// Keys returns every key currently set, sorted.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MaskArgs returns a copy of argv in which the values of secret overrides,
// given as "--set KEY=VALUE" or "--set=KEY=VALUE", are masked.
func MaskArgs(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)

	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == "--set" && i+1 < len(out):
			i++
			out[i] = maskOverride(out[i])
		case strings.HasPrefix(out[i], "--set="):
			out[i] = "--set=" + maskOverride(strings.TrimPrefix(out[i], "--set="))
		}
	}
	return out
}

func maskOverride(pair string) string {
	key, _, err := ParseOverride(pair)
	if err != nil || !isSecret(key) {
		return pair
	}
	return pair[:strings.IndexByte(pair, '=')+1] + masked
}

func isSecret(key string) bool {
	return strings.Contains(key, "PASSWORD") || strings.Contains(key, "SECRET")
}

func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeScalars(raw, out)
	return nil
}

func mergeYAMLConfig(path string, out map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeScalars(raw, out)
	return nil
}

// mergeScalars keeps top-level strings, numbers and booleans. Nested values
// are ignored.
func mergeScalars(raw map[string]interface{}, out map[string]string) {
	for key, val := range raw {
		k := NormalizeKey(key)
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := NormalizeKey(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
