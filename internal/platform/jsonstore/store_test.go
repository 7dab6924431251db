package jsonstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "saveData"))
}

func TestLoad_CreatesDirAndDefaultFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	def := map[string]string{"a": "b"}

	got, err := Load(s, "users.json", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	b, err := os.ReadFile(s.Path("users.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(b))
}

func TestLoad_NilDefaultWritesEmptyObject(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	got, err := Load[string](s, "userSessions.json", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	b, err := os.ReadFile(s.Path("userSessions.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestLoad_ExistingFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    map[string]string
		wantErr bool
	}{
		{"object", `{"token-1":"a@x.com"}`, map[string]string{"token-1": "a@x.com"}, false},
		{"null document", `null`, map[string]string{}, false},
		{"invalid json", `{not json`, nil, true},
		{"wrong shape", `[1,2,3]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
			require.NoError(t, os.WriteFile(s.Path("doc.json"), []byte(tt.content), 0o644))

			got, err := Load[string](s, "doc.json", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save("users.json", map[string]string{"x": "y"}))

	got, err := Load[string](s, "users.json", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "y"}, got)
}

func TestSave_ConcurrentWritesLeaveValidDocument(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := map[string]int{}
			for j := 0; j <= i*50; j++ {
				data[fmt.Sprintf("k%d", j)] = j
			}
			assert.NoError(t, s.Save("big.json", data))
		}(i)
	}
	wg.Wait()

	_, err := Load[int](s, "big.json", nil)
	assert.NoError(t, err)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save("users.json", map[string]string{}))

	require.NoError(t, s.Remove("users.json"))
	_, err := os.Stat(s.Path("users.json"))
	assert.True(t, os.IsNotExist(err))

	// removing again is a no-op
	assert.NoError(t, s.Remove("users.json"))
}

func TestRemoveAll(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save("users.json", map[string]string{}))
	require.NoError(t, s.Save("userSessions.json", map[string]string{}))

	require.NoError(t, s.RemoveAll())
	_, err := os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err))
}
