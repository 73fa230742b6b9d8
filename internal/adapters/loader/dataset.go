// Package loader turns the show dataset into index documents.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// ErrInvalidDataset is returned when the input is not valid JSON.
var ErrInvalidDataset = errors.New("invalid dataset JSON")

const missing = "N/A"

// docNamespace scopes the UUIDv5 document IDs.
var docNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("latentqa/documents"))

// DatasetLoader reads the show dataset JSON file.
type DatasetLoader struct{}

// NewDatasetLoader creates a new dataset loader.
func NewDatasetLoader() *DatasetLoader {
	return &DatasetLoader{}
}

// Load reads the dataset at path and returns its documents in dataset order.
func (l *DatasetLoader) Load(ctx context.Context, path string) ([]entities.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds documents from raw dataset JSON. Sections appear in a fixed
// order: overview, FAQ, judges, episodes, highlights.
func Parse(data []byte) ([]entities.Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDataset
	}
	root := gjson.ParseBytes(data)

	var docs []entities.Document
	add := func(category, content, episode, name string) {
		docs = append(docs, entities.Document{
			ID:       generateDocID(category, content),
			Content:  content,
			Category: category,
			Episode:  episode,
			Name:     name,
		})
	}

	add(entities.CategoryShowOverview, overviewText(root.Get("show_overview")), "", "")

	for _, faq := range root.Get("faq_answers").Array() {
		q, a := faq.Get("question").String(), faq.Get("answer").String()
		if q == "" || a == "" {
			continue
		}
		add(entities.CategoryFAQ, fmt.Sprintf("FAQ Question: %s\nAnswer: %s", q, a), "", "")
	}

	for _, judge := range root.Get("Judges").Array() {
		name := judge.Get("content.Judge").String()
		text := fmt.Sprintf("Judge: %s\nBio: %s\nAppeared in: %s",
			name,
			judge.Get("content.Info.Bio").String(),
			joinStrings(judge.Get("content.Info.Episodes")))
		add(entities.CategoryJudge, text, "", name)
	}

	for _, ep := range root.Get("Episodes").Array() {
		number := valueText(ep.Get("episode"), "Unknown")
		for _, item := range ep.Get("content").Array() {
			content := item.Get("content")
			switch item.Get("type").String() {
			case "Judge":
				add(entities.CategoryEpisodeJudges,
					fmt.Sprintf("Episode %s Judges: %s", number, joinStrings(content.Get("Judges"))),
					number, "")
			case "Contestant":
				add(entities.CategoryContestant, contestantText(number, content), number, "")
			case "Joke":
				add(entities.CategoryJoke, fmt.Sprintf("Episode %s Joke: %s", number, valueText(content, "")), number, "")
			case "Miscellaneous":
				add(entities.CategoryMiscellaneous, fmt.Sprintf("Episode %s Miscellaneous: %s", number, valueText(content, "")), number, "")
			}
		}
	}

	for _, chunk := range root.Get("highlight_chunks").Array() {
		title := valueText(chunk.Get("title"), "Highlight")
		for _, entry := range chunk.Get("content").Array() {
			name := valueText(entry.Get("name"), "Unknown")
			text := fmt.Sprintf("%s - %s (Episode: %s)\n%s",
				title, name, valueText(entry.Get("episode"), missing), entry.Get("description").String())
			add(entities.CategoryHighlight, text, "", name)
		}
	}

	return docs, nil
}

func overviewText(ov gjson.Result) string {
	fields := []struct{ label, key string }{
		{"Title", "title"},
		{"Description", "description"},
		{"Format", "format"},
		{"Inspiration", "inspiration"},
		{"Platform", "platform"},
		{"Host", "host"},
		{"Co-Host", "co_host"},
		{"First Aired", "first_aired"},
		{"Last Aired", "last_aired"},
		{"Total Episodes", "total_episodes"},
		{"Bonus Episodes", "bonus_episodes"},
		{"Audience Engagement", "audience_engagement"},
		{"Memes and Virality", "memes_and_virality"},
	}

	parts := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.label, valueText(ov.Get(f.key), missing)))
	}

	var incidents []string
	for _, c := range ov.Get("recent_controversies").Array() {
		incidents = append(incidents, fmt.Sprintf("Incident: %s\nDetails: %s\nStatus: %s",
			c.Get("incident").String(), c.Get("details").String(), c.Get("current_status").String()))
	}
	parts = append(parts, "Controversies:\n"+strings.Join(incidents, "\n\n"))
	parts = append(parts, fmt.Sprintf("Current Status: %s", valueText(ov.Get("current_status"), missing)))

	return strings.Join(parts, "\n\n")
}

func contestantText(episode string, c gjson.Result) string {
	return fmt.Sprintf("Episode %s Contestant: %s\nPerformance: %s\nScores: %s\nAvg Score: %s\nPrediction: %s\nResult: %s",
		episode,
		valueText(c.Get("Contestant"), missing),
		valueText(c.Get("Performance"), missing),
		dumpJSON(c.Get("Scores")),
		valueText(c.Get("AvgScore"), missing),
		valueText(c.Get("Prediction"), missing),
		valueText(c.Get("Result"), missing))
}

// valueText renders a scalar the way it reads in prose. Absent or null
// values render as fallback; composite values keep their JSON form.
func valueText(r gjson.Result, fallback string) string {
	switch r.Type {
	case gjson.Null:
		return fallback
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	case gjson.True:
		return "True"
	case gjson.False:
		return "False"
	default:
		return dumpJSON(r)
	}
}

// dumpJSON re-serializes a value with ", " and ": " separators.
func dumpJSON(r gjson.Result) string {
	switch {
	case !r.Exists():
		return "null"
	case r.IsObject():
		var parts []string
		r.ForEach(func(key, value gjson.Result) bool {
			parts = append(parts, quote(key.Str)+": "+dumpJSON(value))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case r.IsArray():
		var parts []string
		for _, v := range r.Array() {
			parts = append(parts, dumpJSON(v))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case r.Type == gjson.String:
		return quote(r.Str)
	default:
		return r.Raw
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func joinStrings(r gjson.Result) string {
	items := r.Array()
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = valueText(v, "")
	}
	return strings.Join(out, ", ")
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(category, content string) string {
	return uuid.NewSHA1(docNamespace, []byte(category+"\x00"+content)).String()
}
