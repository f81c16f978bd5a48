package ambient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) Env {
	return Env{
		Getenv: func(k string) string { return vars[k] },
		Now:    func() time.Time { return time.Date(2025, 3, 9, 7, 5, 3, 0, time.Local) },
	}
}

func TestUser(t *testing.T) {
	assert.Equal(t, "Alice", fakeEnv(map[string]string{"USER": "alice"}).User())
	assert.Equal(t, "Ñandu", fakeEnv(map[string]string{"USER": "ñandu"}).User())
	assert.Equal(t, "User", fakeEnv(nil).User())
}

func TestLocalePrecedence(t *testing.T) {
	env := fakeEnv(map[string]string{"LANG": "en_US.UTF-8", "LC_MESSAGES": "es_AR.UTF-8"})
	assert.Equal(t, "es_AR.UTF-8", env.Locale())

	env = fakeEnv(map[string]string{"LANG": "en_US.UTF-8", "LC_ALL": "fr_FR"})
	assert.Equal(t, "fr_FR", env.Locale())

	assert.Equal(t, "", fakeEnv(nil).Locale())
}

func TestDateTime(t *testing.T) {
	assert.Equal(t, "2025-03-09 07:05:03", fakeEnv(nil).DateTime())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Bob", Capitalize("bob"))
	assert.Equal(t, "X", Capitalize("x"))
}

func TestReadPipedFromRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("piped data\n"), 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	content, piped, err := ReadPiped(f)
	require.NoError(t, err)
	assert.True(t, piped)
	assert.Equal(t, "piped data\n", content)
}
