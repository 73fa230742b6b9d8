// Package vectordb provides vector store adapters implementing ports.VectorStore.
package vectordb

import (
	"math"
	"sort"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankTopK scores every document against the query and keeps the best k.
// Ties keep insertion order so results are deterministic.
func rankTopK(query []float32, docs []entities.Document, topK int) []entities.QueryResult {
	if topK <= 0 {
		return nil
	}

	results := make([]entities.QueryResult, len(docs))
	for i, d := range docs {
		results[i] = entities.QueryResult{Document: d, Score: cosineSimilarity(query, d.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
