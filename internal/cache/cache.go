// Package cache provides a small TTL cache on disk for HTTP responses requested by plugin
// scripts through http_tls.request{cache = true}.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/where"
)

// TTL is how long an entry stays fresh.
const TTL = time.Hour

// GenerateKey derives a deterministic cache identifier from a request and its method.
// The request is hashed verbatim since URL paths and bodies are case-sensitive.
func GenerateKey(request, method string) string {
	hash := sha256.Sum256([]byte(strings.ToUpper(method) + "\x00" + request))
	return hex.EncodeToString(hash[:])
}

// Read decodes a fresh cached entry into target.
func Read(key string, target any) bool {
	path := filepath.Join(where.HTTPCache(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, target) == nil
}

// Write stores data under key, swapping a temporary file into place. Every call writes its
// own temporary file, so concurrent writers of one key never share it.
func Write(key string, data any) error {
	dir := where.HTTPCache()

	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	tmp, err := filesystem.API().TempFile(dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(encoded)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = filesystem.API().Rename(tmpPath, filepath.Join(dir, key))
	}
	if err != nil {
		_ = filesystem.API().Remove(tmpPath)
	}

	return err
}

// CollectGarbage removes expired entries and returns how many were deleted.
func CollectGarbage() int {
	var removed int
	_ = filesystem.API().Walk(where.HTTPCache(), func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL {
			if filesystem.API().Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed
}
