//go:build linux || darwin

package operator

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_NonTTYIsNoop(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	term, err := Acquire(int(r.Fd()))
	require.NoError(t, err)
	assert.False(t, term.Active())
	assert.NoError(t, term.Restore())
	assert.NoError(t, term.Restore())
}
