package settingsfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autonotes/internal/domain"
)

func TestStore_LoadMissing(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	raw, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil)
	require.NoError(t, err)

	settings := domain.WithDeviceScheduledTime(domain.DefaultSettings(), "laptop", "21:30")
	settings.Daily.Enabled = true
	require.NoError(t, s.Save(context.Background(), settings.Raw()))

	// a fresh store must not be served from the first one's cache
	reopened, err := New(dir, nil)
	require.NoError(t, err)
	raw, err := reopened.Load(context.Background())
	require.NoError(t, err)

	got := domain.LoadSettings(raw)
	if diff := cmp.Diff(settings, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_MalformedDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{oops"},
		{"array", "[1, 2]"},
		{"string", `"daily"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, settingsKey), []byte(tt.content), 0644))

			s, err := New(dir, nil)
			require.NoError(t, err)
			raw, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, raw)
		})
	}
}

func TestStore_SaveHonorsContext(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, domain.RawSettings{}), context.Canceled)
}
