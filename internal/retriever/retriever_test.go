package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/knowbase/kb/internal/embeddings"
	"github.com/knowbase/kb/internal/index"
	"github.com/knowbase/kb/internal/store"
)

func newTestRetriever(t *testing.T) (*Retriever, *store.Store, *embeddings.Resilient) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	emb := embeddings.NewResilient(nil, 0, nil)
	r := New(st, emb, index.NewLinear(st), nil)
	return r, st, emb
}

type seedDoc struct {
	title     string
	content   []string // one chunk per entry
	docType   store.DocType
	priority  int
	admin     bool
	owner     string
	functions []string
	platforms []string
}

func seed(t *testing.T, st *store.Store, emb *embeddings.Resilient, sd seedDoc) string {
	t.Helper()
	ctx := context.Background()

	doc, err := st.CreateDocument(ctx, store.Document{
		Title:           sd.title,
		DocType:         sd.docType,
		SourceType:      store.SourceFile,
		ContentHash:     sd.title,
		Status:          store.StatusReady,
		Priority:        sd.priority,
		IsAdminManaged:  sd.admin,
		UploadedBy:      sd.owner,
		TargetFunctions: sd.functions,
		TargetPlatforms: sd.platforms,
	})
	if err != nil {
		t.Fatalf("CreateDocument %s: %v", sd.title, err)
	}

	vectors, _ := emb.Embed(ctx, sd.content)
	chunks := make([]store.Chunk, len(sd.content))
	for i, text := range sd.content {
		chunks[i] = store.Chunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    text,
			TokenCount: tokenCount(text),
			Embedding:  vectors[i],
		}
	}
	if err := st.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		t.Fatalf("ReplaceChunks %s: %v", sd.title, err)
	}
	return doc.ID
}

func tokenCount(s string) int {
	return len(strings.Fields(s))
}

func allVisible(owner string) store.Visibility {
	return store.Visibility{Owner: owner, IncludeAdminManaged: true, IncludeUserManaged: true}
}

func TestSearch_PriorityWeighting(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	content := "refund window for enterprise contracts"
	high := seed(t, st, emb, seedDoc{title: "high", content: []string{content}, priority: 10, admin: true})
	low := seed(t, st, emb, seedDoc{title: "low", content: []string{content}, priority: 2, admin: true})

	results, err := r.Search(ctx, SearchRequest{
		Query:      content,
		Visibility: allVisible(""),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocumentID != high || results[1].DocumentID != low {
		t.Errorf("priority did not order equal similarities: %s first", results[0].DocumentTitle)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %f then %f", results[0].Score, results[1].Score)
	}
	if results[0].Content == "" {
		t.Error("chunk content not attached")
	}
}

func TestSearch_MinSimilarityDegradesToEmpty(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	seed(t, st, emb, seedDoc{title: "doc", content: []string{"kubernetes ingress controller settings"}, priority: 5, admin: true})

	results, err := r.Search(ctx, SearchRequest{
		Query:         "medieval falconry techniques",
		MinSimilarity: 0.95,
		Visibility:    allVisible(""),
	})
	if err != nil {
		t.Fatalf("no-match search must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	results, err := r.Search(context.Background(), SearchRequest{Query: "   ", Visibility: allVisible("")})
	if err != nil || results != nil {
		t.Errorf("empty query: results=%v err=%v", results, err)
	}
}

func TestSearch_VisibilityIsolation(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	content := "personal onboarding notes for the payments team"
	seed(t, st, emb, seedDoc{title: "a-notes", content: []string{content}, priority: 5, owner: "userA"})

	// userB cannot see userA's private document.
	results, err := r.Search(ctx, SearchRequest{Query: content, Visibility: allVisible("userB")})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("userB sees %d of userA's documents", len(results))
	}

	// The owner does.
	results, err = r.Search(ctx, SearchRequest{Query: content, Visibility: allVisible("userA")})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("owner sees %d results, want 1", len(results))
	}
}

func TestSearch_FunctionAndPlatformFilters(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	content := "quarterly discount authorization matrix"
	seed(t, st, emb, seedDoc{title: "sales-only", content: []string{content}, priority: 5, admin: true, functions: []string{"sales"}})
	unrestricted := seed(t, st, emb, seedDoc{title: "everyone", content: []string{content}, priority: 5, admin: true})

	results, err := r.Search(ctx, SearchRequest{
		Query:          content,
		TargetFunction: "engineering",
		Visibility:     allVisible(""),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// The restricted document is excluded; the unrestricted one matches
	// any function.
	if len(results) != 1 || results[0].DocumentID != unrestricted {
		t.Errorf("function filter wrong: %d results", len(results))
	}

	results, err = r.Search(ctx, SearchRequest{
		Query:          content,
		TargetFunction: "sales",
		Visibility:     allVisible(""),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("sales should match both documents, got %d", len(results))
	}
}

func TestSearch_TopKCap(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	content := "incident escalation ladder"
	for _, title := range []string{"a", "b", "c"} {
		seed(t, st, emb, seedDoc{title: title, content: []string{content}, priority: 5, admin: true})
	}

	results, err := r.Search(ctx, SearchRequest{Query: content, TopK: 2, Visibility: allVisible("")})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestSearch_MarksUsage(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	content := "travel reimbursement rates"
	id := seed(t, st, emb, seedDoc{title: "doc", content: []string{content}, priority: 5, admin: true})

	if _, err := r.Search(ctx, SearchRequest{Query: content, Visibility: allVisible("")}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	doc, err := st.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", doc.UsageCount)
	}
}

func TestContextForPrompt_Budget(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	// Ten tokens per chunk; a budget of 15 admits exactly one.
	content := "one two three four five six seven eight nine ten"
	seed(t, st, emb, seedDoc{title: "first", content: []string{content}, docType: store.DocTypePolicy, priority: 10, admin: true})
	seed(t, st, emb, seedDoc{title: "second", content: []string{content}, priority: 2, admin: true})

	pc, err := r.ContextForPrompt(ctx, ContextRequest{
		Query:      content,
		MaxTokens:  15,
		Visibility: allVisible(""),
	})
	if err != nil {
		t.Fatalf("ContextForPrompt: %v", err)
	}
	if pc.TokenCount != 10 {
		t.Errorf("token count = %d, want 10", pc.TokenCount)
	}
	if len(pc.Sources) != 1 || pc.Sources[0].Title != "first" {
		t.Errorf("sources = %+v, want the high-priority document only", pc.Sources)
	}
	if len(pc.Sources) == 1 && pc.Sources[0].DocType != store.DocTypePolicy {
		t.Errorf("source doc type = %q, want %q", pc.Sources[0].DocType, store.DocTypePolicy)
	}
	if pc.ContextText != content {
		t.Errorf("context text = %q", pc.ContextText)
	}
}

func TestContextForPrompt_DeduplicatesSources(t *testing.T) {
	r, st, emb := newTestRetriever(t)
	ctx := context.Background()

	content := "api gateway rate limits"
	seed(t, st, emb, seedDoc{
		title:    "doc",
		content:  []string{content, content},
		priority: 5,
		admin:    true,
	})

	pc, err := r.ContextForPrompt(ctx, ContextRequest{
		Query:      content,
		MaxTokens:  100,
		Visibility: allVisible(""),
	})
	if err != nil {
		t.Fatalf("ContextForPrompt: %v", err)
	}
	if len(pc.Sources) != 1 {
		t.Errorf("sources = %d, want 1 despite multiple chunks", len(pc.Sources))
	}
	if pc.TokenCount != 2*tokenCount(content) {
		t.Errorf("token count = %d, want both chunks counted", pc.TokenCount)
	}
}

func TestContextForPrompt_NoMatches(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	pc, err := r.ContextForPrompt(context.Background(), ContextRequest{
		Query:      "anything",
		Visibility: allVisible(""),
	})
	if err != nil {
		t.Fatalf("ContextForPrompt: %v", err)
	}
	if pc.ContextText != "" || pc.TokenCount != 0 || len(pc.Sources) != 0 {
		t.Errorf("empty knowledge base should yield empty context: %+v", pc)
	}
}
