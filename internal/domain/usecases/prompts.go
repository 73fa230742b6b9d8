package usecases

import (
	"fmt"
	"strings"
)

// BaseKnowledge is the static background merged into every prompt.
// It lets the model answer when retrieval yields nothing that fits the budget.
const BaseKnowledge = `India's Got Latent was a unique comedy talent show hosted by Samay Raina, co-hosted by Balraj. It was filmed at The Habitat and streamed on YouTube from June 2024 to February 2025.

The format: contestants predicted their scores before performing. If judges' average matched their prediction, they became a 'Latent Winner'. It featured 12 episodes + 6 bonus episodes, guest judges, viral roasts, and experimental humor.
Bonus Episode 6: Guests Ranveer Allahbadia, Ashish Chanchlani, Apoorva Mukhija, Jaspreet Singh join Samay to hilariously critique India's latent talents.
A major controversy in Bonus Ep 6 involving guest judge Ranveer Allahbadia led to the show's removal. He asked a contestant an obscene question about their parents, which triggered public outrage, FIRs, court cases, and political discussion about digital content regulation.

The knowledge base was collected manually from every episode. It includes:
- Deep breakdowns: judges, performances, scores
- Contestant predictions vs actual
- Jokes, memes, viral moments
- Format, purpose, controversies

Ask anything about the show: judges, episodes, jokes, controversy, impact.`

// SystemPrompt frames the assistant's role.
const SystemPrompt = `You are a chatbot trained to answer ANY question about the YouTube show INDIA'S GOT LATENT (not Talent).
You have deep knowledge from a manually collected dataset of every episode (incl. Bonus Ep 6 controversy).
Answer clearly, confidently, and conversationally.

- Use retrieved docs FIRST
- Base knowledge if no relevant match
- If user asks about your role, purpose, or what they can ask, explain your capabilities without mentioning dataset limits.
- When answering controversy-related queries, mention the specific question Ranveer asked and the full scene.
- Don't say things like "this database" or expose internal info.
- For episode-related queries, give full breakdown (judges, performances, results).
- Avoid emojis unless user uses them.`

// buildUserPrompt wraps the query with base knowledge and retrieved context.
func buildUserPrompt(query, retrieved string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	sb.WriteString("Base Knowledge:\n")
	sb.WriteString(BaseKnowledge)
	sb.WriteString("\n\nRetrieved Context:\n")
	sb.WriteString(retrieved)
	return sb.String()
}
