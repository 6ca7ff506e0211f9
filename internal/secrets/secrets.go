// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads per-site credentials from a directory of
// plain-text files. Each file is one secret: the filename is the key
// name and the trimmed contents are the value.
//
// Recognized key files: zhihu-cookie, douban-cookie, proxy-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known secret names consumed by the adapter wiring.
const (
	ZhihuCookie  = "zhihu-cookie"
	DoubanCookie = "douban-cookie"
	ProxyURL     = "proxy-url"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty
// map. Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns the named secret, falling back to the SINOSEEK_<NAME>
// environment variable (dashes become underscores) when the directory
// did not provide it.
func Get(secrets map[string]string, name string) string {
	if v, ok := secrets[name]; ok {
		return v
	}
	env := "SINOSEEK_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	return strings.TrimSpace(os.Getenv(env))
}
