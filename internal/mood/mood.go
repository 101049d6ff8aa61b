package mood

const (
	Happy    = "happy"
	Inspired = "inspired"
	Curious  = "curious"
	Calm     = "calm"
)

// keys in display order
var keys = []string{Happy, Inspired, Curious, Calm}

var responses = map[string]string{
	Happy:    "That's wonderful! Your positivity is contagious.",
	Inspired: "Glad to hear it! Creativity often strikes when you least expect it.",
	Curious:  "Perfect! A curious mind is a powerful tool for learning new things.",
	Calm:     "Take a deep breath. A peaceful mind is a clear mind.",
}

// Response returns the fixed text for a mood key, false if the key is unknown.
func Response(key string) (string, bool) {
	resp, ok := responses[key]
	return resp, ok
}

func Keys() []string {
	k := make([]string, len(keys))
	copy(k, keys)
	return k
}
