package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	Version, Commit, Date = "v1.2.3", "", "2026-01-02T03:04:05Z"
	t.Cleanup(func() { Version, Commit, Date = "", "", "" })

	require.Equal(t, "v1.2.3 (2026-01-02T03:04:05Z)", String())

	Date = ""
	require.Equal(t, "v1.2.3", String())

	Version = ""
	require.NotEmpty(t, String())
}

func TestShaVersion(t *testing.T) {
	t.Parallel()

	require.Equal(t, "dev-abc", shaVersion(" abc ", false))
	require.Equal(t, "dev-0123456-dirty", shaVersion("0123456789", true))
}
