package stacktrace_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/pkg/stacktrace"
)

func TestInternalPaths(t *testing.T) {
	t.Parallel()

	paths := stacktrace.InternalPaths(0)

	require.NotEmpty(t, paths)
	assert.True(t, strings.HasPrefix(paths[0], "internal/pkg/stacktrace/stacktrace_test.go:"), paths[0])
	for _, p := range paths {
		assert.True(t, strings.HasPrefix(p, "internal/"), p)
	}
}
