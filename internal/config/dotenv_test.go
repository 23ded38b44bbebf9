package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotenv_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FAPI_DOTENV_A=from-file\nFAPI_DOTENV_B=from-file\n"), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("FAPI_DOTENV_A", "")
	os.Unsetenv("FAPI_DOTENV_A")
	t.Setenv("FAPI_DOTENV_B", "from-os")

	loadDotenv()
	t.Cleanup(func() { os.Unsetenv("FAPI_DOTENV_A") })

	assert.Equal(t, "from-file", os.Getenv("FAPI_DOTENV_A"))
	assert.Equal(t, "from-os", os.Getenv("FAPI_DOTENV_B"), "existing variables win by default")
}

func TestLoadDotenv_Overload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FAPI_DOTENV_C=from-file\n"), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("DOTENV_OVERLOAD", "1")
	t.Setenv("FAPI_DOTENV_C", "from-os")

	loadDotenv()
	assert.Equal(t, "from-file", os.Getenv("FAPI_DOTENV_C"))
}

func TestLoadDotenv_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FAPI_DOTENV_D=from-file\n"), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("FAPI_DOTENV_D", "")
	os.Unsetenv("FAPI_DOTENV_D")

	loadDotenv()
	_, ok := os.LookupEnv("FAPI_DOTENV_D")
	assert.False(t, ok)
}

func TestDotenvDirs_StopAtProjectRoot(t *testing.T) {
	root, err := ProjectRoot()
	require.NoError(t, err)
	dirs := dotenvDirs()
	require.NotEmpty(t, dirs)
	assert.Equal(t, root, dirs[len(dirs)-1])
}
