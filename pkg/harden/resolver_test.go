package harden

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomePathResolver(t *testing.T) {
	r := HomePathResolver{Suffix: "Desktop/system.preferences.plist", Home: "/Users/admin"}

	args, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/Users/admin/Desktop/system.preferences.plist"}, args)
	assert.Equal(t, "$HOME/Desktop/system.preferences.plist", r.String())

	t.Setenv("HOME", "/tmp/operator")
	args, err = HomePathResolver{Suffix: "Desktop/x.plist"}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/operator/Desktop/x.plist"}, args)
}

func TestCommandLinesResolver(t *testing.T) {
	probe := &mockProber{outputFunc: func(program string, args []string) (string, error) {
		return "one\n\ntwo\n", nil
	}}
	r := CommandLinesResolver{Probe: probe, Program: "/usr/bin/find", Args: []string{"/Applications"}}

	args, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, args)
	assert.Equal(t, "lines of: /usr/bin/find /Applications", r.String())

	_, err = CommandLinesResolver{Program: "/usr/bin/find"}.Resolve(context.Background())
	assert.Error(t, err)
}
