package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleDistinctMembersOfBank(t *testing.T) {
	b := bank(10)
	inBank := make(map[string]bool)
	for _, q := range b {
		inBank[q.ID] = true
	}

	for seed := int64(0); seed < 20; seed++ {
		for k := 0; k <= len(b); k++ {
			got := Sample(b, k, rand.New(rand.NewSource(seed)))
			require.Len(t, got, k)

			seen := make(map[string]bool)
			for _, q := range got {
				assert.True(t, inBank[q.ID], "question %s not in bank", q.ID)
				assert.False(t, seen[q.ID], "question %s drawn twice", q.ID)
				seen[q.ID] = true
			}
		}
	}
}

func TestSampleClampsCount(t *testing.T) {
	b := bank(4)
	rng := rand.New(rand.NewSource(1))

	assert.Len(t, Sample(b, 9, rng), 4)
	assert.Empty(t, Sample(b, -2, rng))
	assert.Empty(t, Sample(nil, 3, rng))
}

func TestSampleLeavesBankOrder(t *testing.T) {
	b := bank(6)
	Sample(b, 6, rand.New(rand.NewSource(3)))

	for i, q := range b {
		assert.Equal(t, bank(6)[i].ID, q.ID)
	}
}

func TestSampleAppendDoesNotTouchBank(t *testing.T) {
	b := bank(5)
	got := Sample(b, 2, rand.New(rand.NewSource(3)))
	_ = append(got, b[0])

	assert.Len(t, got, 2)
	assert.Equal(t, "q1", b[0].ID)
}

func TestSampleSize(t *testing.T) {
	q := newTestSession(5, 0, noTimer, "").State()
	assert.Len(t, q.Questions, 5)

	q = newTestSession(5, 3, noTimer, "").State()
	assert.Len(t, q.Questions, 3)

	q = newTestSession(5, 8, noTimer, "").State()
	assert.Len(t, q.Questions, 5)
}
