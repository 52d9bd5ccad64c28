package main

import (
	"bytes"
	"strings"
	"testing"

	"backend-hikinghelper/internal/trail"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRegionsCommand(t *testing.T) {
	out, err := execute(t, "regions")
	require.NoError(t, err)
	assert.Contains(t, out, "GA")
	assert.Contains(t, out, "North Carolina")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestClassifyCommandJSON(t *testing.T) {
	out, err := execute(t, "classify", "--regions", "sc", "--difficulty", "Moderate", "--min", "2", "--max", "8", "--band", "moderate", "--json")
	require.NoError(t, err)

	var tiers trail.Tiers
	require.NoError(t, json.Unmarshal([]byte(out), &tiers))

	require.Len(t, tiers.Recommended, 1)
	assert.Equal(t, 102, tiers.Recommended[0].ID)
	for _, tr := range append(append(tiers.Recommended, tiers.Easier...), tiers.Other...) {
		assert.Equal(t, "SC", trail.NormalizeRegion(tr.Region))
	}
	assert.Equal(t, 6, len(tiers.Recommended)+len(tiers.Easier)+len(tiers.Other))
}

func TestClassifyCommandText(t *testing.T) {
	out, err := execute(t, "classify", "--regions", "South Carolina", "--completed", "102")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommended (")
	assert.Contains(t, out, "Easier (")
	assert.Contains(t, out, "Other (")
	assert.Contains(t, out, "done")
}

func TestClassifyUnknownRegion(t *testing.T) {
	_, err := execute(t, "classify", "--regions", "ZZ")
	assert.Error(t, err)
}

func TestNearbyCommand(t *testing.T) {
	out, err := execute(t, "nearby", "--lat", "35.033", "--lng", "-82.70", "--radius", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Table Rock Trail")

	_, err = execute(t, "nearby", "--lat", "35")
	assert.Error(t, err)

	_, err = execute(t, "nearby", "--lat", "35", "--lng", "-82", "--radius", "0")
	assert.Error(t, err)
}
