// Package env sources a deployment descriptor file into the process
// environment and exposes the ambient variables the campaign cares about.
package env

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Defaults for the ambient variables read by the campaign. A variable absent
// from both the process environment and this table reads as empty.
var defaults = map[string]string{
	"CI_LOOP":         "daily",
	"DEPLOY_SCENARIO": "default",
	"INSTALLER_TYPE":  "",
	"BUILD_TAG":       "",
	"NODE_NAME":       "",
	"TEST_DB_URL":     "",
}

var (
	assignRe = regexp.MustCompile(`(.*)=(.*)`)
	trimRe   = regexp.MustCompile(`^["' ]*|[ '"]*$`)
)

// Get returns the value of key from the process environment, falling back
// to the package default when unset.
func Get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaults[key]
}

// Source loads key=value lines from the given file into the process
// environment. Quotes and an `export ` prefix are stripped. A missing file
// is not an error.
func Source(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("No env file found", "path", path)
			return nil
		}
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\"\n")
		line = strings.TrimPrefix(line, "export ")
		if !assignRe.MatchString(line) {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = trimRe.ReplaceAllString(key, "")
		value = trimRe.ReplaceAllString(value, "")
		if key == "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s from env file: %w", key, err)
		}
	}
	log.Info("Sourced env file", "path", path)
	return nil
}

// String renders the deployment description: every known variable and its
// effective value, one per line, in stable order.
func String() string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, Get(k))
	}
	return b.String()
}
