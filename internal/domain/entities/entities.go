// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

// Document categories produced by the dataset loader.
const (
	CategoryShowOverview  = "Show Overview"
	CategoryFAQ           = "FAQ"
	CategoryJudge         = "Judge"
	CategoryEpisodeJudges = "Episode Judges"
	CategoryContestant    = "Contestant"
	CategoryJoke          = "Joke"
	CategoryMiscellaneous = "Miscellaneous"
	CategoryHighlight     = "Highlight"
)

// Document is a passage in the similarity index.
// The core only reads and orders documents; it never creates or mutates them.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Episode   string    `json:"episode,omitempty"`
	Name      string    `json:"name,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"` // Populated by the index builder
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Document Document
	Score    float64 // Similarity score
}

// IntentType is the retrieval intent tag assigned to a query.
type IntentType string

const (
	IntentShowOverview IntentType = "show_overview"
	IntentFAQ          IntentType = "faq"
	IntentEpisode      IntentType = "episode"
	IntentBonusEpisode IntentType = "bonus_episode"
	IntentJudge        IntentType = "judge"
	IntentPerformance  IntentType = "performance"
	IntentJoke         IntentType = "joke"
	IntentGeneral      IntentType = "general"
)

// Intent is the classification of a single query.
// Episode is set only for episode and bonus_episode intents.
type Intent struct {
	Type    IntentType `json:"type"`
	Episode string     `json:"episode,omitempty"`
	TopK    int        `json:"top_k"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a query within a session.
type ChatRequest struct {
	SessionID string
	Query     string
}

// ChatResponse represents the LLM's answer with the passages it was given.
type ChatResponse struct {
	Answer  string
	Intent  Intent
	Sources []Document
}
