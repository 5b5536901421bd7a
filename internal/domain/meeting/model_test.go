package meeting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParams(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		_, err := NewParams("", "/tmp/out.webm", "", "")
		assert.ErrorIs(t, err, ErrMissingURL)
	})

	t.Run("missing output", func(t *testing.T) {
		_, err := NewParams("https://meet.google.com/abc-defg-hij", "  ", "", "")
		assert.ErrorIs(t, err, ErrMissingOutput)
	})

	t.Run("default name", func(t *testing.T) {
		p, err := NewParams("https://meet.google.com/abc-defg-hij", "/tmp/out.webm", "", "42")
		require.NoError(t, err)
		assert.Equal(t, DefaultDisplayName, p.DisplayName)
		assert.Equal(t, "42", p.CallID)
	})

	t.Run("explicit name", func(t *testing.T) {
		p, err := NewParams("https://zoom.us/j/1", "/tmp/out.webm", "Recruiter Bot", "")
		require.NoError(t, err)
		assert.Equal(t, "Recruiter Bot", p.DisplayName)
		assert.Empty(t, p.CallID)
	})
}

func TestEnsureOutputDir(t *testing.T) {
	root := t.TempDir()
	p, err := NewParams("https://meet.google.com/x", filepath.Join(root, "a", "b", "out.webm"), "", "")
	require.NoError(t, err)

	require.NoError(t, p.EnsureOutputDir())

	info, err := os.Stat(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCredentialsPresent(t *testing.T) {
	assert.False(t, Credentials{}.Present())
	assert.False(t, Credentials{Email: "a@b.c"}.Present())
	assert.False(t, Credentials{Password: "x"}.Present())
	assert.True(t, Credentials{Email: "a@b.c", Password: "x"}.Present())
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
		err  bool
	}{
		{url: "https://meet.google.com/abc-defg-hij", want: PlatformMeet},
		{url: "HTTPS://MEET.GOOGLE.COM/abc", want: PlatformMeet},
		{url: "https://us02web.zoom.us/j/123456789?pwd=x", want: PlatformZoom},
		{url: "https://app.zoom.us/wc/join/123", want: PlatformZoom},
		{url: "https://teams.microsoft.com/l/meetup-join/x", err: true},
		{url: "https://example.com", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := DetectPlatform(tt.url)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedPlatform)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformRequiresSignIn(t *testing.T) {
	assert.True(t, PlatformMeet.RequiresSignIn())
	assert.False(t, PlatformZoom.RequiresSignIn())
}

func TestJobStopFirstReasonWins(t *testing.T) {
	j := NewJob()
	assert.True(t, j.Running())

	j.Stop(StopMeetingEnded)
	j.Stop(StopSignal)

	assert.False(t, j.Running())
	assert.Equal(t, StopMeetingEnded, j.Reason())
}
