package bot

import (
	"math/rand"
	"sync"
	"time"
)

// Scheduler decides whether and when the bot answers a user message.
// The delay window and reply probability are injected so tests can force
// determinism; questions always get an answer.
type Scheduler struct {
	MinDelay         time.Duration
	MaxDelay         time.Duration
	ReplyProbability float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewScheduler(minDelay, maxDelay time.Duration, replyProbability float64, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Scheduler{
		MinDelay:         minDelay,
		MaxDelay:         maxDelay,
		ReplyProbability: replyProbability,
		rng:              rng,
	}
}

// ShouldReply applies the anti-spam gate: interrogative or help-seeking
// text always triggers a reply, anything else passes with the configured
// probability.
func (s *Scheduler) ShouldReply(text string) bool {
	if IsQuestion(text) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.ReplyProbability
}

// Delay draws a uniform-random duration from the configured window.
func (s *Scheduler) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaxDelay <= s.MinDelay {
		return s.MinDelay
	}
	return s.MinDelay + time.Duration(s.rng.Int63n(int64(s.MaxDelay-s.MinDelay)))
}

// Schedule fires fn after the drawn delay when the gate passes, and
// reports whether a reply was scheduled. There is no cancellation: a
// reply into a room everyone has left is published to nobody.
func (s *Scheduler) Schedule(text string, fn func()) bool {
	if !s.ShouldReply(text) {
		return false
	}
	time.AfterFunc(s.Delay(), fn)
	return true
}
