// Package where resolves the application's per-user filesystem locations.
package where

import (
	"os"
	"path/filepath"

	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the default configuration directory.
const EnvConfigPath = "PLUGTEST_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the configuration directory, honouring PLUGTEST_CONFIG_PATH.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the directory holding dated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Plugins resolves the directory where scaffolded plugin scripts are written.
func Plugins() string {
	return ensureDir(filepath.Join(Config(), "plugins"))
}

// HTTPCache resolves the directory backing the http_tls response cache.
func HTTPCache() string {
	return ensureDir(filepath.Join(Cache(), "http"))
}

// HistoryDB resolves the bbolt database storing past run reports.
func HistoryDB() string {
	return filepath.Join(Config(), "history.db")
}

// Recent resolves the file tracking recently tested sources.
func Recent() string {
	return filepath.Join(Cache(), "recent.json")
}

// Temp resolves a volatile directory for transient artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}
