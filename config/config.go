// Package config resolves settings from, in rising precedence, built-in
// defaults, config/app.json, .env and the process environment. Every known
// key is listed in defaults; unknown keys from the files are still readable
// through Get.
package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = maps.Clone(defaults)
)

// Load reads the files once per process. Accessors call it themselves.
func Load() error {
	loadOnce.Do(func() {
		loadErr = load("config/app.json", ".env")
	})
	return loadErr
}

func load(jsonPath, envPath string) error {
	merged := maps.Clone(defaults)
	if err := readJSON(jsonPath, merged); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := readDotEnv(envPath, merged); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for k := range merged {
		if v, ok := os.LookupEnv(k); ok {
			merged[k] = strings.TrimSpace(v)
		}
	}

	mu.Lock()
	values = merged
	mu.Unlock()
	return nil
}

// readJSON takes the top-level string, number and bool fields of a JSON
// object; keys are upper-cased.
func readJSON(path string, out map[string]string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	for k, v := range doc {
		k = strings.ToUpper(strings.TrimSpace(k))
		switch v := v.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case float64, bool:
			out[k] = fmt.Sprint(v)
		}
	}
	return nil
}

// readDotEnv parses KEY=value lines, skipping blanks and # comments and
// stripping one layer of quotes.
func readDotEnv(path string, out map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		k, v, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		k = strings.ToUpper(strings.TrimSpace(k))
		if !ok || k == "" {
			return fmt.Errorf("config: %s:%d: expected KEY=value", path, n)
		}
		out[k] = strings.Trim(strings.TrimSpace(v), `"'`)
	}
	return sc.Err()
}

// Get returns key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	_ = Load()
	mu.RLock()
	v := strings.TrimSpace(values[key])
	mu.RUnlock()
	if v == "" {
		return fallback
	}
	return v
}

func str(key string) string { return Get(key, defaults[key]) }

// GetInt falls back when key is unset or not an integer.
func GetInt(key string, fallback int) int {
	if n, err := strconv.Atoi(Get(key, "")); err == nil {
		return n
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(Get(key, "")); err == nil {
		return b
	}
	return fallback
}

// GetDuration parses values like "30s"; non-positive values fall back.
func GetDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(Get(key, "")); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Set overrides key for the rest of the process. CLI flags and tests use it.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
