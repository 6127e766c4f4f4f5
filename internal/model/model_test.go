package model

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepth(t *testing.T) {
	d, err := ParseDepth("")
	require.NoError(t, err)
	assert.Equal(t, DepthStandard, d)

	for _, valid := range []string{"basic", "standard", "comprehensive"} {
		d, err := ParseDepth(valid)
		require.NoError(t, err)
		assert.Equal(t, Depth(valid), d)
	}

	_, err = ParseDepth("extreme")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidIdentifier))
}

func TestDepthBudgets(t *testing.T) {
	assert.Equal(t, 3, DepthBasic.SourceCount())
	assert.Equal(t, 5, DepthStandard.SourceCount())
	assert.Equal(t, 6, DepthComprehensive.SourceCount())

	assert.Equal(t, 5*time.Second, DepthBasic.SourceTimeout())
	assert.Equal(t, 10*time.Second, DepthStandard.SourceTimeout())
	assert.Equal(t, 20*time.Second, DepthComprehensive.SourceTimeout())
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		cur, next ProspectStatus
		want      bool
	}{
		{StatusPending, StatusResearched, true},
		{StatusPending, StatusProfiled, true},
		{StatusResearched, StatusProfiled, true},
		{StatusResearched, StatusResearched, true},
		{StatusProfiled, StatusProfiled, true},
		{StatusProfiled, StatusResearched, false},
		{StatusResearched, StatusPending, false},
		{StatusProfiled, StatusPending, false},
		{StatusPending, StatusFailed, true},
		{StatusProfiled, StatusFailed, true},
		{StatusFailed, StatusResearched, true},
		{StatusFailed, StatusProfiled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.cur, tc.next), "%s -> %s", tc.cur, tc.next)
	}
}

func TestSourceNamesOrder(t *testing.T) {
	names := SourceNames()
	require.Len(t, names, 6)
	assert.Equal(t, SourceWebPresence, names[0])
	assert.Equal(t, SourceGovernmentRegistry, names[5])
}

func TestSectionKeysStable(t *testing.T) {
	keys := SectionKeys()
	require.Len(t, keys, 6)
	assert.Equal(t, SectionCompanyOverview, keys[0])
	assert.Equal(t, SectionHiringSignals, keys[5])
}
