package theme

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	th, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), th)

	th, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), th)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("title_color: \"#000000\"\nlost_color: red\nborder_color: \"  \"\n"), 0644))

	th, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.TitleColor = "#000000"
	want.LostColor = "red"
	assert.Equal(t, want, th)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("title_color: [unclosed\n"), 0644))

	th, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), th)
}

func TestFeedbackColor(t *testing.T) {
	th := Default()
	tests := []struct {
		feedback string
		want     string
		ok       bool
	}{
		{"I'm on track", th.OnTrackColor, true},
		{"please SLOW down", th.SlowDownColor, true},
		{" I'm lost ", th.LostColor, true},
		{"Please go faster", th.GoFasterColor, true},
		{"more coffee", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.feedback, func(t *testing.T) {
			got, ok := th.FeedbackColor(tt.feedback)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Theme, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, 10*time.Millisecond, func(th Theme, err error) {
			if err == nil {
				select {
				case got <- th:
				default:
				}
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("title_color: \"#123456\"\n"), 0644)
		select {
		case th := <-got:
			return th.TitleColor == "#123456"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchMissingDirectoryWaitsForCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Watch(ctx, filepath.Join(t.TempDir(), "missing", FileName), func(Theme, error) {
		t.Error("callback must not run")
	})
	assert.NoError(t, err)
}
