// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"regexp"
	"strings"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// episodePattern matches "episode 3", "bonus episode 6", "episode12".
// Any Unicode decimal digit counts, so "episode ३" matches too.
var episodePattern = regexp.MustCompile(`(bonus episode|episode)\s*(\p{Nd}+)`)

var (
	showOverviewPhrases = []string{
		"what is the show", "describe the show", "who is the host",
		"how many episodes", "format", "taken down", "controversy",
	}
	faqPhrases = []string{
		"faq", "where was it", "will it return", "can i watch", "was it scripted",
	}
	performanceWords = []string{"contestant", "performance"}
	jokeWords        = []string{"joke", "roast", "funny"}
)

// Classify maps a raw query to a retrieval intent.
// Rules are evaluated in order and the first match wins; the final rule
// always matches, so every input, including "", gets an intent.
func Classify(query string) entities.Intent {
	q := strings.ToLower(query)

	if containsAny(q, showOverviewPhrases) {
		return entities.Intent{Type: entities.IntentShowOverview, TopK: 3}
	}
	if containsAny(q, faqPhrases) {
		return entities.Intent{Type: entities.IntentFAQ, TopK: 4}
	}
	if label, number, ok := matchEpisode(q); ok {
		intentType := entities.IntentEpisode
		if label == bonusEpisodeLabel {
			intentType = entities.IntentBonusEpisode
		}
		return entities.Intent{Type: intentType, Episode: number, TopK: 5}
	}
	if strings.Contains(q, "judge") {
		return entities.Intent{Type: entities.IntentJudge, TopK: 6}
	}
	if containsAny(q, performanceWords) {
		return entities.Intent{Type: entities.IntentPerformance, TopK: 6}
	}
	if containsAny(q, jokeWords) {
		return entities.Intent{Type: entities.IntentJoke, TopK: 5}
	}
	return entities.Intent{Type: entities.IntentGeneral, TopK: 6}
}

const (
	episodeLabel      = "Episode"
	bonusEpisodeLabel = "Bonus Episode"
)

// matchEpisode finds the first episode reference in a lowercased query and
// returns the probe label ("Episode" or "Bonus Episode") and the digits.
func matchEpisode(lower string) (label, number string, ok bool) {
	m := episodePattern.FindStringSubmatch(lower)
	if m == nil {
		return "", "", false
	}
	if strings.Contains(m[1], "bonus") {
		return bonusEpisodeLabel, m[2], true
	}
	return episodeLabel, m[2], true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
