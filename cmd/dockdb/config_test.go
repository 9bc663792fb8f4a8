package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dockdb/dockdb/dbcontainer"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dockdb.yml")

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func Test_LoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
containers:
  - platform: postgres
    name: app_pg
    port: 6433
    dbName: app
    dbUser: app
    extensions: hstore, pgcrypto
    startMode: dropCreate
    stopMode: remove
  - platform: redis
    name: app_redis
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Containers, 2)

	pg := cfg.Containers[0]
	require.Equal(t, "postgres", pg.Platform)
	require.Equal(t, "app_pg", pg.Name)
	require.Equal(t, 6433, pg.Port)
	require.Equal(t, "hstore, pgcrypto", pg.Extensions)
	require.Equal(t, "dropCreate", pg.StartMode)
	require.Equal(t, "remove", pg.StopMode)

	require.Equal(t, "redis", cfg.Containers[1].Platform)
}

func Test_LoadConfig_Empty(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "containers: []\n")

	_, err := loadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "declares no containers")
}

func Test_LoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func Test_Build_UnknownPlatform(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
containers:
  - platform: cassandra
    name: nope
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	_, err = build(cfg.Containers[0])
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown platform "cassandra"`)
}

func Test_Build_KnownPlatforms(t *testing.T) {
	t.Parallel()

	for _, platform := range []string{"postgres", "mysql", "redis", "minio"} {
		cnt, err := build(dbcontainer.Config{Platform: platform})
		require.NoError(t, err, platform)
		require.NotNil(t, cnt, platform)
	}
}
