package storage

import (
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNumber(t *testing.T) {
	id := uuid.MustParse("3f2a9c11-0000-4000-8000-000000000000")
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "PED-20261017-3F2A9C", OrderNumber(at, id))
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, migrationPath+"/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_productos.sql",
		"migrations/00002_pedidos.sql",
		"migrations/00003_artesanos.sql",
	}, files)

	data, err := fs.ReadFile(migrationsFS, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "imagenes    TEXT[]")
}

func TestMigrationArtesanos(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/00003_artesanos.sql")
	require.NoError(t, err)
	for _, col := range []string{"nombre_tienda", "ubicacion", "datos_pago_movil JSONB", "datos_zelle      JSONB"} {
		assert.Contains(t, string(data), col)
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		q    string
		want string
	}{
		{"", "%%"},
		{"  vasija ", "%vasija%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, likePattern(tt.q), tt.q)
	}
}
