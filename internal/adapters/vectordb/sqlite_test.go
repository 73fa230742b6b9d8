package vectordb

import (
	"context"
	"math"
	"testing"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

func TestSQLiteStore_StoreAndSearch(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	docs := []entities.Document{
		{ID: "d1", Category: entities.CategoryJudge, Name: "Samay", Content: "hello", Embedding: []float32{1.0, 0.0, 0.0}},
		{ID: "d2", Category: entities.CategoryFAQ, Content: "world", Embedding: []float32{0.0, 1.0, 0.0}},
	}

	if err := store.Store(ctx, docs); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	query := []float32{1.0, 0.0, 0.0} // Should match d1
	results, err := store.Search(ctx, query, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.ID != "d1" {
		t.Error("d1 should be top result")
	}
	if results[0].Document.Name != "Samay" || results[0].Document.Category != entities.CategoryJudge {
		t.Errorf("metadata not round-tripped: %+v", results[0].Document)
	}
}

func TestSQLiteStore_Upsert(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Store(ctx, []entities.Document{{ID: "d1", Category: entities.CategoryJoke, Content: "old", Embedding: []float32{1, 0}}})
	store.Store(ctx, []entities.Document{{ID: "d1", Category: entities.CategoryJoke, Content: "new", Embedding: []float32{1, 0}}})

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 document after upsert, got %d", count)
	}

	results, _ := store.Search(ctx, []float32{1, 0}, 1)
	if len(results) != 1 || results[0].Document.Content != "new" {
		t.Errorf("expected updated content, got %+v", results)
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Store(ctx, []entities.Document{
		{ID: "d1", Category: entities.CategoryFAQ, Content: "a", Embedding: []float32{1, 0, 0}},
		{ID: "d2", Category: entities.CategoryFAQ, Content: "b", Embedding: []float32{0, 1, 0}},
	})

	store.Clear(ctx)

	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected 0 documents after clear, got %d", count)
	}
}

func TestSQLiteStore_Replace(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Store(ctx, []entities.Document{{ID: "old", Content: "old", Embedding: []float32{1, 0}}})

	err = store.Replace(ctx, []entities.Document{
		{ID: "n1", Content: "new one", Embedding: []float32{1, 0}},
		{ID: "n2", Content: "new two", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	results, _ := store.Search(ctx, []float32{1, 0}, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 documents after replace, got %d", len(results))
	}
	for _, r := range results {
		if r.Document.ID == "old" {
			t.Error("old document should be gone")
		}
	}
}

func TestSQLiteStore_FailedReplaceKeepsData(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Store(ctx, []entities.Document{{ID: "kept", Content: "kept", Embedding: []float32{1, 0}}})

	// An embedding that cannot be encoded fails the insert after the delete
	// has run inside the transaction.
	err = store.Replace(ctx, []entities.Document{
		{ID: "bad", Content: "bad", Embedding: []float32{float32(math.NaN())}},
	})
	if err == nil {
		t.Fatal("expected replace to fail")
	}

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("expected the previous document to survive, got %d documents", count)
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	store.Store(ctx, []entities.Document{{ID: "d1", Category: entities.CategoryFAQ, Content: "a", Embedding: []float32{1}}})
	store.Close()

	reopened, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	count, _ := reopened.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 document after reopen, got %d", count)
	}
}
