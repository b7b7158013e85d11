package quiz

import (
	"math/rand"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
)

// NewRand returns a generator seeded from the clock.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Sample returns the first count questions of a uniform shuffle of bank.
// The bank itself is left untouched. count is clamped to [0, len(bank)].
func Sample(bank []models.Question, count int, rng *rand.Rand) []models.Question {
	if count < 0 {
		count = 0
	}
	if count > len(bank) {
		count = len(bank)
	}

	order := make([]models.Question, len(bank))
	copy(order, bank)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	return order[:count:count]
}

// SampleSize is how many questions a session over q draws. Zero or a
// negative QuestionsToSelect means the whole bank.
func SampleSize(q models.Quiz) int {
	if q.QuestionsToSelect <= 0 || q.QuestionsToSelect > len(q.Questions) {
		return len(q.Questions)
	}
	return q.QuestionsToSelect
}
