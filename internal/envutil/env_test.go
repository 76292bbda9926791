package envutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnvMissingFileIsFine(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func TestWriteThenLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, WriteDotEnv(path, map[string]string{
		"TURNTIME_TEST_GREEN": "30",
		"TURNTIME_TEST_ADDR":  ":9000",
	}, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Setenv("TURNTIME_TEST_ADDR", ":7000")
	t.Setenv("TURNTIME_TEST_GREEN", "")
	require.NoError(t, os.Unsetenv("TURNTIME_TEST_GREEN"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "30", os.Getenv("TURNTIME_TEST_GREEN"))
	assert.Equal(t, ":7000", os.Getenv("TURNTIME_TEST_ADDR"))
}

func TestWriteDotEnvRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, WriteDotEnv(path, map[string]string{"A": "1"}, false))
	assert.Error(t, WriteDotEnv(path, map[string]string{"A": "2"}, false))
	assert.NoError(t, WriteDotEnv(path, map[string]string{"A": "2"}, true))
}

func TestFloatOrDefault(t *testing.T) {
	t.Setenv("TURNTIME_TEST_FLOAT", "")
	v, err := FloatOrDefault("TURNTIME_TEST_FLOAT", 35)
	require.NoError(t, err)
	assert.Equal(t, 35.0, v)

	t.Setenv("TURNTIME_TEST_FLOAT", " 33.5 ")
	v, err = FloatOrDefault("TURNTIME_TEST_FLOAT", 35)
	require.NoError(t, err)
	assert.Equal(t, 33.5, v)

	t.Setenv("TURNTIME_TEST_FLOAT", "thirty")
	_, err = FloatOrDefault("TURNTIME_TEST_FLOAT", 35)
	assert.Error(t, err)
}

func TestIntOrDefault(t *testing.T) {
	t.Setenv("TURNTIME_TEST_INT", "")
	n, err := IntOrDefault("TURNTIME_TEST_INT", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	t.Setenv("TURNTIME_TEST_INT", "x")
	_, err = IntOrDefault("TURNTIME_TEST_INT", 20)
	assert.Error(t, err)
}
