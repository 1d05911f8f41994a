package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bare host gains https", in: "example.com", want: "https://example.com"},
		{name: "existing scheme kept", in: "http://example.com/path", want: "http://example.com/path"},
		{name: "whitespace trimmed", in: "  example.com/page  ", want: "https://example.com/page"},
		{name: "query preserved", in: "https://example.com/?q=1", want: "https://example.com/?q=1"},
		{name: "empty rejected", in: "", wantErr: true},
		{name: "ftp rejected", in: "ftp://example.com/", wantErr: true},
		{name: "no host rejected", in: "https:///path", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("example.com"))
	assert.True(t, IsValidURL("https://example.com/a?b=c"))
	assert.False(t, IsValidURL(""))
	assert.False(t, IsValidURL("ftp://example.com"))
}

func TestHostnameOf(t *testing.T) {
	assert.Equal(t, "example.com", HostnameOf("https://example.com/path"))
	assert.Equal(t, "example.com", HostnameOf("example.com"))
	assert.Equal(t, "example.com", HostnameOf("//example.com/pixel.gif"))
	assert.Equal(t, "example.com", HostnameOf("https://example.com:8443/"))
	assert.Equal(t, "", HostnameOf(""))
}

func TestRemoveDuplicates(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, RemoveDuplicates(in))
	assert.Empty(t, RemoveDuplicates(nil))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"beta": 2, "alpha": 1, "gamma": 3}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, SortedKeys(m))
}

func TestRetryWithContextSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithContext(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithContextExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("always fails")
	err := RetryWithContext(context.Background(), 2, time.Millisecond, func() error {
		return sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestRetryWithContextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithContext(ctx, 5, time.Second, func() error {
		return errors.New("never reached")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "250ms", HumanizeDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", HumanizeDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", HumanizeDuration(125*time.Second))
	assert.Equal(t, "1h30m", HumanizeDuration(90*time.Minute))
}

func TestHumanizeBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanizeBytes(512))
	assert.Equal(t, "1.0 KiB", HumanizeBytes(1024))
	assert.Equal(t, "1.5 MiB", HumanizeBytes(1536*1024))
}
