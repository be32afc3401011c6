package bot

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Category names one reply pool.
type Category string

const (
	CategoryGreeting      Category = "greeting"
	CategoryTopic         Category = "topic"
	CategoryQuestion      Category = "question"
	CategoryPositive      Category = "positive"
	CategoryConfused      Category = "confused"
	CategoryTechnical     Category = "technical"
	CategoryEncouragement Category = "encouragement"
	CategoryTopicFallback Category = "topic_fallback"
	CategoryFallback      Category = "fallback"
)

var greetingPattern = regexp.MustCompile(`\b(hi|hello|hey|yo|howdy|greetings)\b`)

var questionMarkers = []string{"?", "what is", "how to", "how do", "can you", "why does"}

var helpMarkers = []string{"help", "explain", "stuck"}

// topic groups a named technology with its trigger keywords and replies.
type topic struct {
	name     string
	keywords []string
	pool     []string
}

var topics = []topic{
	{
		name:     "React",
		keywords: []string{"react", "jsx", "component", "hook", "usestate", "useeffect"},
		pool: []string{
			"React question! Components and hooks are the heart of it - which part are you working with?",
			"Good one! In React, think of the UI as a function of state. Does that framing help here?",
			"Hooks trip a lot of people up at first. useState and useEffect cover most cases you'll hit.",
		},
	},
	{
		name:     "JavaScript",
		keywords: []string{"javascript", "promise", "async", "await", "callback"},
		pool: []string{
			"Classic JavaScript territory! Async behavior is where most of the confusion lives.",
			"JavaScript has its quirks, but once closures and promises click, the rest follows.",
			"Try logging the values step by step - JavaScript's execution order usually explains it.",
		},
	},
	{
		name:     "CSS",
		keywords: []string{"css", "flexbox", "grid", "selector", "stylesheet"},
		pool: []string{
			"CSS layout question! Flexbox for one dimension, Grid for two - that rule covers a lot.",
			"Styling can be fiddly. Have you inspected the element to see which rules actually apply?",
		},
	},
	{
		name:     "Python",
		keywords: []string{"python", "pandas", "numpy", "django"},
		pool: []string{
			"Python makes this pretty approachable - what have you tried so far?",
			"Nice, a Python question! The standard library probably has you covered here.",
		},
	},
}

// pools holds the canned replies per category. The greeting, question and
// fallback sets follow the original bot's voice.
var pools = map[Category][]string{
	CategoryGreeting: {
		"Hello! 👋 How are you enjoying this video?",
		"Hi there! Ready to learn something new today?",
		"Hey! Great to have you in the chat!",
		"Welcome! Feel free to ask any questions about the video.",
	},
	CategoryQuestion: {
		"That's a great question! What specific aspect are you curious about?",
		"I'd love to help with that! Could you provide more details?",
		"Interesting question! Let me think about the best way to explain this...",
	},
	CategoryPositive: {
		"Glad you're enjoying it! 🎉",
		"That's great to hear! Keep that momentum going.",
		"Awesome! Love the enthusiasm in this chat.",
	},
	CategoryConfused: {
		"No worries, this part confuses a lot of people. Try rewatching that section slowly.",
		"Totally normal to feel lost here - which step stopped making sense?",
		"It clicks eventually, promise. Want to tell me where it went sideways?",
	},
	CategoryTechnical: {
		"Good technical point! Reading the error message carefully usually reveals the cause.",
		"Sounds like a debugging session - try isolating the smallest piece that still fails.",
		"Solid question. Checking the docs for that function is a good next step.",
	},
	CategoryEncouragement: {
		"Don't give up! Every developer has been exactly where you are.",
		"Hard now, easy later - that's how learning to code works. 💪",
		"Take a short break and come back to it. Fresh eyes fix more bugs than long nights.",
	},
	CategoryFallback: {
		"Thanks for sharing your thoughts!",
		"That's an interesting perspective!",
		"I appreciate you being part of this discussion!",
	},
}

var topicFallbackTemplates = []string{
	"This %s video covers that - keep watching and it should come together!",
	"Since we're learning %s here, feel free to ask anything about it.",
	"Great to see you digging into %s!",
}

// Responder maps input text plus the video title to one canned reply.
// Classification is an ordered rule chain; the first match wins.
type Responder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResponder creates a responder. A nil rng gets a time-seeded default;
// tests pass a seeded source.
func NewResponder(rng *rand.Rand) *Responder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Responder{rng: rng}
}

// Classify places text into exactly one category. The videoTitle is
// context: a topic keyword in the title promotes interrogative messages
// into that topic's pool, and flavors the fallback.
func (r *Responder) Classify(text, videoTitle string) Category {
	msg := strings.ToLower(strings.TrimSpace(text))
	title := strings.ToLower(videoTitle)

	switch {
	case greetingPattern.MatchString(msg):
		return CategoryGreeting
	case matchesTopic(msg, title) != nil:
		return CategoryTopic
	case IsQuestion(msg):
		return CategoryQuestion
	case containsAny(msg, "great", "awesome", "love", "amazing", "excellent", "perfect", "thanks", "thank you", "helpful", "nice"):
		return CategoryPositive
	case containsAny(msg, "confus", "lost", "don't understand", "dont understand", "unclear", "doesn't make sense", "makes no sense"):
		return CategoryConfused
	case containsAny(msg, "function", "variable", "array", "object", "database", "server", "compile", "syntax", "algorithm", "api"):
		return CategoryTechnical
	case containsAny(msg, "frustrat", "give up", "too hard", "difficult", "annoying", "hate this", "tired of"):
		return CategoryEncouragement
	case titleTopic(title) != nil:
		return CategoryTopicFallback
	default:
		return CategoryFallback
	}
}

// Respond picks a uniform-random reply from the category's pool. Every
// category yields non-empty text.
func (r *Responder) Respond(category Category, text, videoTitle string) string {
	msg := strings.ToLower(strings.TrimSpace(text))
	title := strings.ToLower(videoTitle)

	switch category {
	case CategoryTopic:
		if t := matchesTopic(msg, title); t != nil {
			return r.pick(t.pool)
		}
		return r.pick(pools[CategoryQuestion])
	case CategoryTopicFallback:
		if t := titleTopic(title); t != nil {
			return fmt.Sprintf(r.pick(topicFallbackTemplates), t.name)
		}
		return r.pick(pools[CategoryFallback])
	default:
		if pool, ok := pools[category]; ok {
			return r.pick(pool)
		}
		return r.pick(pools[CategoryFallback])
	}
}

// Reply classifies text and produces the reply in one step.
func (r *Responder) Reply(text, videoTitle string) (string, Category) {
	category := r.Classify(text, videoTitle)
	return r.Respond(category, text, videoTitle), category
}

// IsQuestion reports whether text carries an interrogative or
// help-seeking marker. Such messages always get a bot reply.
func IsQuestion(text string) bool {
	msg := strings.ToLower(text)
	return containsAny(msg, questionMarkers...) || containsAny(msg, helpMarkers...)
}

func (r *Responder) pick(pool []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pool[r.rng.Intn(len(pool))]
}

// matchesTopic finds the topic whose keyword appears in the message, or
// in the title when the message itself is interrogative.
func matchesTopic(msg, title string) *topic {
	for i := range topics {
		if containsAny(msg, topics[i].keywords...) {
			return &topics[i]
		}
	}
	if IsQuestion(msg) {
		return titleTopic(title)
	}
	return nil
}

func titleTopic(title string) *topic {
	if title == "" {
		return nil
	}
	for i := range topics {
		if containsAny(title, topics[i].keywords...) {
			return &topics[i]
		}
	}
	return nil
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
