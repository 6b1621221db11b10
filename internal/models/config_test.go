package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "database_url: postgres://localhost/db\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "product-images", cfg.KafkaTopic)
	assert.Equal(t, 1200, cfg.Images.MaxWidth)
	assert.Equal(t, 0.82, cfg.Images.Quality)
	assert.Equal(t, DefaultFallbackImage, cfg.Images.FallbackURL)
	assert.Equal(t, 2*time.Hour, cfg.Drafts.TTL)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server_addr: ":9000"
jwt_secret: from-file
images:
  max_width: 800
  quality: 0.7
drafts:
  ttl: 30m
minio:
  bucket: fotos
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 800, cfg.Images.MaxWidth)
	assert.Equal(t, 0.7, cfg.Images.Quality)
	assert.Equal(t, 30*time.Minute, cfg.Drafts.TTL)
	assert.Equal(t, "fotos", cfg.Minio.Bucket)
	assert.True(t, cfg.Minio.UseSSL)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
