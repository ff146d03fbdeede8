package netgroups

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAndFind(t *testing.T) {
	src := "group1 (h1,,) @group2\ngroup2 (h2,,)\n"
	nf, err := ParseReader("test", strings.NewReader(src))
	require.NoError(t, err)

	g1, ok := nf.Find("group1")
	require.True(t, ok)
	require.Contains(t, g1.Hosts, "h1")
	require.Contains(t, g1.SubGroups, "group2")

	_, ok = nf.Find("nosuch")
	require.False(t, ok)
}

func TestFindResolvesForwardReference(t *testing.T) {
	// group2 is referenced by group1 before its own definition line —
	// a placeholder entry is created for it, and Find returns that
	// entry filled in once group2's own line arrives.
	src := "group1 @group2\ngroup2 (h2,,)\n"
	nf, err := ParseReader("test", strings.NewReader(src))
	require.NoError(t, err)

	g2, ok := nf.Find("group2")
	require.True(t, ok)
	require.Contains(t, g2.Hosts, "h2")
}

func TestContainsTransitive(t *testing.T) {
	src := "group1 (h1,,) @group2\ngroup2 (h2,,)\n"
	nf, err := ParseReader("test", strings.NewReader(src))
	require.NoError(t, err)

	require.True(t, nf.Contains("group1", "h1"))
	require.True(t, nf.Contains("group1", "h2"))
	require.False(t, nf.Contains("group1", "h3"))
	require.False(t, nf.Contains("nosuch", "h1"))
}

func TestContainsCycleTerminates(t *testing.T) {
	src := "group1 @group2 (h1,,)\ngroup2 @group1 (h2,,)\n"
	nf, err := ParseReader("test", strings.NewReader(src))
	require.NoError(t, err)

	done := make(chan bool, 1)
	go func() {
		done <- nf.Contains("group1", "h2")
	}()

	select {
	case result := <-done:
		require.True(t, result)
	case <-time.After(time.Second):
		t.Fatal("Contains did not terminate on a netgroup cycle")
	}
}

func TestMalformedHostTripleSkipsTokenOnly(t *testing.T) {
	src := "group1 (h1,bad user,) (h2,,)\n"
	nf, err := ParseReader("test", strings.NewReader(src))
	require.NoError(t, err)

	g1, ok := nf.Find("group1")
	require.True(t, ok)
	require.NotContains(t, g1.Hosts, "h1")
	require.Contains(t, g1.Hosts, "h2")
}

func TestIgnoredLines(t *testing.T) {
	src := "# comment\n\ngroup1 (h1,,)\n"
	nf, err := ParseReader("test", strings.NewReader(src))
	require.NoError(t, err)

	require.Len(t, nf.Groups, 1)
	_, ok := nf.Find("group1")
	require.True(t, ok)
}
