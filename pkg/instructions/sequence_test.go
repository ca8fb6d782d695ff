package instructions_test

import (
	"testing"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/instructions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	seq, err := instructions.Parse("  LLR \n")
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
	assert.Equal(t, "LLR", seq.String())
}

func TestParse_Errors(t *testing.T) {
	_, err := instructions.Parse("")
	assert.ErrorIs(t, err, domain.ErrEmptyInstructionSequence)

	_, err = instructions.Parse("LRX")
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)

	_, err = instructions.New(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInstructionSequence)
}

func TestNext_Cycles(t *testing.T) {
	seq, err := instructions.Parse("LLR")
	require.NoError(t, err)

	want := []domain.Direction{
		domain.Left, domain.Left, domain.Right,
		domain.Left, domain.Left, domain.Right,
		domain.Left,
	}

	pos := 0
	for i, w := range want {
		var d domain.Direction
		d, pos = seq.Next(pos)
		assert.Equal(t, w, d, "step %d", i)
	}
	assert.Equal(t, len(want), pos)
	assert.Equal(t, 1, seq.Cursor(pos))
}

func TestNext_IsPure(t *testing.T) {
	seq, err := instructions.Parse("RL")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		a, na := seq.Next(i)
		b, nb := seq.Next(i)
		assert.Equal(t, a, b)
		assert.Equal(t, na, nb)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	dirs := []domain.Direction{domain.Left, domain.Right}
	seq, err := instructions.New(dirs)
	require.NoError(t, err)

	dirs[0] = domain.Right
	d, _ := seq.Next(0)
	assert.Equal(t, domain.Left, d)
}
