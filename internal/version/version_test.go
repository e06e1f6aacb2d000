package version_test

import (
	"runtime"
	"strings"
	"testing"

	"github.com/ludo-technologies/linecheck/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShort(t *testing.T) {
	assert.NotEmpty(t, version.Short())
}

func TestInfoFormat(t *testing.T) {
	lines := strings.Split(version.Info(), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "linecheck "+version.Version, lines[0])
	assert.Equal(t, "Commit: "+version.Commit, lines[1])
	assert.Equal(t, "Built: "+version.Date, lines[2])
	assert.Equal(t, "Go: "+runtime.Version(), lines[3])
	assert.Equal(t, "OS/Arch: "+runtime.GOOS+"/"+runtime.GOARCH, lines[4])
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "linecheck/"+version.Version, version.UserAgent())
}
