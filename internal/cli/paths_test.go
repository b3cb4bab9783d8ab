package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/crewviz/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestFileCacheDirFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Dir = "/srv/crewviz-cache"
	dir, err := fileCacheDir(cfg)
	if err != nil || dir != "/srv/crewviz-cache" {
		t.Errorf("fileCacheDir() = %q, %v", dir, err)
	}
}
