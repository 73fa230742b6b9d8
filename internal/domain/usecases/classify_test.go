package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  entities.Intent
	}{
		{"show overview", "What is the show about?", entities.Intent{Type: entities.IntentShowOverview, TopK: 3}},
		{"host", "Who is the host?", entities.Intent{Type: entities.IntentShowOverview, TopK: 3}},
		{"controversy", "Why was there a controversy?", entities.Intent{Type: entities.IntentShowOverview, TopK: 3}},
		{"faq", "Can I watch it anywhere now?", entities.Intent{Type: entities.IntentFAQ, TopK: 4}},
		{"scripted", "Was it scripted?", entities.Intent{Type: entities.IntentFAQ, TopK: 4}},
		{"bonus episode", "Tell me about bonus episode 6", entities.Intent{Type: entities.IntentBonusEpisode, Episode: "6", TopK: 5}},
		{"episode", "Episode 3 highlights", entities.Intent{Type: entities.IntentEpisode, Episode: "3", TopK: 5}},
		{"episode no space", "what happened in episode12", entities.Intent{Type: entities.IntentEpisode, Episode: "12", TopK: 5}},
		{"devanagari digits", "episode ३ recap", entities.Intent{Type: entities.IntentEpisode, Episode: "३", TopK: 5}},
		{"fullwidth digits", "bonus episode ６", entities.Intent{Type: entities.IntentBonusEpisode, Episode: "６", TopK: 5}},
		{"judge", "Which judge was the harshest?", entities.Intent{Type: entities.IntentJudge, TopK: 6}},
		{"contestant", "Best contestant ever", entities.Intent{Type: entities.IntentPerformance, TopK: 6}},
		{"performance", "a great performance", entities.Intent{Type: entities.IntentPerformance, TopK: 6}},
		{"roast", "Give me a savage roast", entities.Intent{Type: entities.IntentJoke, TopK: 5}},
		{"funny", "something FUNNY", entities.Intent{Type: entities.IntentJoke, TopK: 5}},
		{"general", "Who won?", entities.Intent{Type: entities.IntentGeneral, TopK: 6}},
		{"empty", "", entities.Intent{Type: entities.IntentGeneral, TopK: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// The episode rule fires before the joke rule.
	got := Classify("episode 3 jokes")
	assert.Equal(t, entities.Intent{Type: entities.IntentEpisode, Episode: "3", TopK: 5}, got)

	// The show-overview rule shadows the episode rule.
	got = Classify("how many episodes after episode 4?")
	assert.Equal(t, entities.Intent{Type: entities.IntentShowOverview, TopK: 3}, got)

	// The episode rule fires before the judge rule.
	got = Classify("judges of bonus episode 2")
	assert.Equal(t, entities.Intent{Type: entities.IntentBonusEpisode, Episode: "2", TopK: 5}, got)
}

func TestClassify_JudgeWithoutHigherRules(t *testing.T) {
	for _, q := range []string{"judge", "JUDGE panel", "who were the judges", "judgement day"} {
		got := Classify(q)
		assert.Equal(t, entities.IntentJudge, got.Type, q)
		assert.Equal(t, 6, got.TopK, q)
		assert.Empty(t, got.Episode, q)
	}
}

func TestMatchEpisode(t *testing.T) {
	label, number, ok := matchEpisode("bonus episode 6 please")
	assert.True(t, ok)
	assert.Equal(t, "Bonus Episode", label)
	assert.Equal(t, "6", number)

	label, number, ok = matchEpisode("episode   10")
	assert.True(t, ok)
	assert.Equal(t, "Episode", label)
	assert.Equal(t, "10", number)

	_, _, ok = matchEpisode("episodes are fun")
	assert.False(t, ok)
}
