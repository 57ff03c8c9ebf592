package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"update-node", "find-replace", "get-node",
		"add-tag", "remove-tag", "replace-tag", "list-terms",
		"update-alt", "test-auth", "summary",
	}

	got := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		got[cmd.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "command %q not registered", name)
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config", "backend", "site", "env", "changelog", "timeout"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing global flag %q", name)
	}
}

func TestFindReplaceRequiresFind(t *testing.T) {
	flag := findReplaceCmd.Flags().Lookup("find")
	require.NotNil(t, flag)
	assert.Equal(t, "body", findReplaceCmd.Flags().Lookup("field").DefValue)
}

func TestParseID(t *testing.T) {
	id, err := parseID("123", "node id")
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	for _, bad := range []string{"", "abc", "-5", "0", "12.5"} {
		_, err := parseID(bad, "node id")
		assert.Error(t, err, "parseID(%q) should fail", bad)
	}
}

func TestTagCommandDefaults(t *testing.T) {
	assert.Equal(t, "field_tags", addTagCmd.Flags().Lookup("field").DefValue)
	assert.NotNil(t, addTagCmd.Flags().Lookup("propose"))
	assert.Equal(t, "changes.json", summaryCmd.Flags().Lookup("file").DefValue)
}
