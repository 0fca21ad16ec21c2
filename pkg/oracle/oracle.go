// Package oracle derives the cluster's verdicts.
//
// The probability of a question is a pure function of its normalized text, so the
// same question always yields the same answer. Whether a session ends in a simulated
// fault is decided independently, once per session.
package oracle

import (
	"math/rand/v2"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/minio/highwayhash"
)

// DefaultFailureRate is the chance that a session ends in a simulated fault.
const DefaultFailureRate = 0.15

// Fixed 32-byte key for deterministic hashing (not a secret).
var hashKey = func() [32]byte {
	var key [32]byte
	copy(key[:], "qx32:orbit-cluster:probability")
	return key
}()

// Probability maps normalized question text into [0,100].
func Probability(normalized string) int {
	h, err := highwayhash.New64(hashKey[:])
	if err != nil {
		// Only possible with a key that is not 32 bytes long.
		panic(err)
	}
	_, _ = h.Write([]byte(normalized))
	return int(h.Sum64() % 101)
}

// AnswerFor derives the verdict from a probability. A tie at 50 answers NO.
func AnswerFor(probability int) domain.Answer {
	if probability > 50 {
		return domain.AnswerYes
	}
	return domain.AnswerNo
}

// Resolve computes the successful verdict for a question.
// The probability is taken from the original text, normalized, never from the script.
func Resolve(q domain.Question) domain.Result {
	p := Probability(domain.Normalize(q.Original))
	return domain.Result{
		Kind:        domain.ResultSuccess,
		Answer:      AnswerFor(p),
		Probability: p,
	}
}

// DecideFailure flips a weighted coin: true with probability rate.
func DecideFailure(rng *rand.Rand, rate float64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	return rng.Float64() < rate
}
