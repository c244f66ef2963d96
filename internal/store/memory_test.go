package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aethelred/foundry/internal/domain"
)

func TestEnqueueTargetDuplicatePolicy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	id, err := s.EnqueueTarget(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("EnqueueTarget() error = %v", err)
	}

	if _, err := s.EnqueueTarget(ctx, "https://example.com"); err != ErrDuplicate {
		t.Errorf("re-enqueue of pending URL: err = %v, want ErrDuplicate", err)
	}

	// A failed target may be requeued by re-adding it.
	if _, err := s.ClaimNextTarget(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.FinalizeTarget(ctx, id, domain.TargetFailed); err != nil {
		t.Fatal(err)
	}
	reID, err := s.EnqueueTarget(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("re-enqueue of failed URL: err = %v", err)
	}
	if reID != id {
		t.Errorf("requeue created a new record: id %d, want %d", reID, id)
	}
	tgt, _ := s.Target(id)
	if tgt.Status != domain.TargetPending {
		t.Errorf("requeued target status = %s, want pending", tgt.Status)
	}
}

func TestClaimFIFOOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.EnqueueTarget(ctx, fmt.Sprintf("https://example.com/%d", i))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	for _, want := range ids {
		got, err := s.ClaimNextTarget(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != want {
			t.Errorf("claimed target %d, want oldest pending %d", got.ID, want)
		}
		if got.Status != domain.TargetInProgress {
			t.Errorf("claimed target status = %s, want in_progress", got.Status)
		}
	}

	if _, err := s.ClaimNextTarget(ctx); err != ErrNotFound {
		t.Errorf("claim on drained queue: err = %v, want ErrNotFound", err)
	}
}

func TestClaimExclusivity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	const pending = 5
	const claimants = 8
	for i := 0; i < pending; i++ {
		if _, err := s.EnqueueTarget(ctx, fmt.Sprintf("https://example.com/%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	claimed := make(map[int64]int)
	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target, err := s.ClaimNextTarget(ctx)
			if err != nil {
				return // ErrNotFound for the claimants that lost
			}
			mu.Lock()
			claimed[target.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(claimed) != pending {
		t.Errorf("claimed %d distinct targets, want min(claimants, pending) = %d", len(claimed), pending)
	}
	for id, n := range claimed {
		if n != 1 {
			t.Errorf("target %d claimed %d times", id, n)
		}
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	id, err := s.EnqueueTarget(ctx, "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimNextTarget(ctx); err != nil {
		t.Fatal(err)
	}

	if err := s.FinalizeTarget(ctx, id, domain.TargetCompleted); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if err := s.FinalizeTarget(ctx, id, domain.TargetCompleted); err != nil {
		t.Fatalf("second finalize should be a no-op: %v", err)
	}

	tgt, _ := s.Target(id)
	if tgt.Status != domain.TargetCompleted {
		t.Errorf("status after double finalize = %s, want completed", tgt.Status)
	}
}

func TestFinalizeGuardsStatusGraph(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	id, err := s.EnqueueTarget(ctx, "https://example.com")
	if err != nil {
		t.Fatal(err)
	}

	// Finalizing a target that was never claimed would skip in_progress.
	if err := s.FinalizeTarget(ctx, id, domain.TargetCompleted); err != ErrInvalidTransition {
		t.Errorf("finalize of unclaimed target: err = %v, want ErrInvalidTransition", err)
	}
	// Non-terminal statuses are not valid finalize arguments.
	if err := s.FinalizeTarget(ctx, id, domain.TargetPending); err != ErrInvalidTransition {
		t.Errorf("finalize to pending: err = %v, want ErrInvalidTransition", err)
	}
	if err := s.FinalizeTarget(ctx, 999, domain.TargetCompleted); err != ErrNotFound {
		t.Errorf("finalize of unknown id: err = %v, want ErrNotFound", err)
	}

	tgt, _ := s.Target(id)
	if tgt.Status != domain.TargetPending {
		t.Errorf("status regressed to %s", tgt.Status)
	}
}

func TestContentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	targetID := int64(42)
	id, err := s.EnqueueRawContent(ctx, &targetID, "https://example.com", "raw text")
	if err != nil {
		t.Fatal(err)
	}

	c, err := s.ClaimNextContent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != id || c.Status != domain.ContentInProgress {
		t.Errorf("claimed content = %+v", c)
	}
	if c.TargetID == nil || *c.TargetID != targetID {
		t.Errorf("target reference lost: %v", c.TargetID)
	}

	if err := s.FinalizeContent(ctx, id, domain.ContentProcessed); err != nil {
		t.Fatal(err)
	}
	if err := s.FinalizeContent(ctx, id, domain.ContentFailed); err != nil {
		t.Fatalf("finalize of terminal content should be a no-op: %v", err)
	}
	got, _ := s.Content(id)
	if got.Status != domain.ContentProcessed {
		t.Errorf("terminal status overwritten: %s", got.Status)
	}
}

func TestAnnealDedupScenario(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKnowledgeStore()

	a := &domain.KnowledgeChunk{Embedding: []float32{1, 0}, Summary: "x", Title: "A", URL: "https://a"}
	admission, err := s.AnnealAndInsert(ctx, a, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if !admission.Admitted {
		t.Fatal("first chunk must be admitted")
	}

	// cosine([1,0], [0.99,0.14]) is about 0.99, above the 0.95 threshold.
	b := &domain.KnowledgeChunk{Embedding: []float32{0.99, 0.14}, Summary: "x2", Title: "B", URL: "https://b"}
	admission, err = s.AnnealAndInsert(ctx, b, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if admission.Admitted {
		t.Error("near-duplicate must be rejected")
	}
	if admission.Nearest == nil || admission.Nearest.Title != "A" {
		t.Errorf("rejection evidence = %+v, want chunk A", admission.Nearest)
	}

	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("index contains %d chunks, want 1", count)
	}
}

func TestAnnealNovelInsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKnowledgeStore()

	if _, err := s.AnnealAndInsert(ctx, &domain.KnowledgeChunk{Embedding: []float32{1, 0}, Summary: "a"}, 0.95); err != nil {
		t.Fatal(err)
	}
	admission, err := s.AnnealAndInsert(ctx, &domain.KnowledgeChunk{Embedding: []float32{0, 1}, Summary: "c"}, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if !admission.Admitted {
		t.Error("orthogonal chunk must be admitted")
	}

	count, _ := s.Count(ctx)
	if count != 2 {
		t.Errorf("index contains %d chunks, want 2", count)
	}
}

func TestAnnealInsertWithoutEntities(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKnowledgeStore()

	// Extractions may carry no entities; the stored chunk still must.
	chunk := &domain.KnowledgeChunk{Embedding: []float32{1, 0}, Summary: "sparse"}
	admission, err := s.AnnealAndInsert(ctx, chunk, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if !admission.Admitted {
		t.Fatal("chunk into empty index must be admitted")
	}
	if chunk.Entities == nil {
		t.Error("stored chunk has nil entities, want empty slice")
	}
}

func TestSearchOrderingAndTieBreak(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKnowledgeStore()

	// Two chunks equidistant from the query, one closer.
	for _, c := range []*domain.KnowledgeChunk{
		{Embedding: []float32{1, 0}, Summary: "first tie"},
		{Embedding: []float32{0, 1}, Summary: "second tie"},
		{Embedding: []float32{1, 1}, Summary: "closest"},
	} {
		if _, err := s.AnnealAndInsert(ctx, c, 0.99); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.Search(ctx, []float32{1, 1}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Summary != "closest" {
		t.Errorf("results[0] = %q, want the most similar chunk", results[0].Summary)
	}
	// Equal similarity: insertion order breaks the tie, earlier chunk first.
	if results[1].Summary != "first tie" || results[2].Summary != "second tie" {
		t.Errorf("tie-break order = %q, %q", results[1].Summary, results[2].Summary)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not in descending similarity order")
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	s := NewMemoryKnowledgeStore()
	results, err := s.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() on empty index error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty index", len(results))
	}
}
