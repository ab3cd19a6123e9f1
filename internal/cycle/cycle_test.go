package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnLogCreated(t *testing.T) {
	// 0-5 existing logs keep the cycle accumulating
	for before := 0; before <= 5; before++ {
		next, err := OnLogCreated(StateAccumulating, before)
		require.NoError(t, err)
		assert.Equal(t, StateAccumulating, next, "before=%d", before)
	}

	// the 7th log flips the cycle to ready
	next, err := OnLogCreated(StateAccumulating, 6)
	require.NoError(t, err)
	assert.Equal(t, StateReady, next)

	// an 8th log is rejected even if the state column lagged behind
	_, err = OnLogCreated(StateAccumulating, 7)
	assert.ErrorIs(t, err, ErrCycleFull)
}

func TestOnLogCreatedRejectsClosedStates(t *testing.T) {
	for _, state := range []State{StateReady, StateProcessing} {
		_, err := OnLogCreated(state, 7)
		assert.ErrorIs(t, err, ErrCycleFull, "state=%s", state)

		// count should not matter once the cycle left accumulating
		_, err = OnLogCreated(state, 3)
		assert.ErrorIs(t, err, ErrCycleFull, "state=%s", state)
	}
}

func TestCanGenerate(t *testing.T) {
	assert.False(t, CanGenerate(StateAccumulating))
	assert.True(t, CanGenerate(StateReady))
	assert.True(t, CanGenerate(StateProcessing))
}
