package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestCreateAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, Document{
		Title:           "Refund policy",
		Description:     "Company-wide refund rules",
		DocType:         DocTypePolicy,
		Scope:           ScopeGlobal,
		IsAdminManaged:  true,
		SourceType:      SourceFile,
		Content:         "Refunds are issued within 30 days.",
		ContentHash:     "abc",
		TargetFunctions: []string{"sales", "support"},
		Tags:            []string{"billing"},
		Priority:        8,
		UploadedBy:      "admin-1",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("no id assigned")
	}
	if doc.Status != StatusPending {
		t.Errorf("status = %s, want pending", doc.Status)
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Refund policy" || got.Priority != 8 || !got.IsAdminManaged {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if !got.IsActive {
		t.Error("new documents must be active")
	}
	if !reflect.DeepEqual(got.TargetFunctions, []string{"sales", "support"}) {
		t.Errorf("target functions = %v", got.TargetFunctions)
	}
	if !reflect.DeepEqual(got.Tags, []string{"billing"}) {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.Content != "Refunds are issued within 30 days." {
		t.Errorf("content = %q", got.Content)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetDocument(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindByContentHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, owner := range []string{"u1", "u2"} {
		if _, err := s.CreateDocument(ctx, Document{
			Title: "dup", SourceType: SourceFile, ContentHash: "same-hash", UploadedBy: owner,
		}); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}

	docs, err := s.FindByContentHash(ctx, "same-hash")
	if err != nil {
		t.Fatalf("FindByContentHash: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
	if docs, _ := s.FindByContentHash(ctx, "other"); len(docs) != 0 {
		t.Errorf("unexpected matches for unknown hash: %d", len(docs))
	}
}

func TestCompareAndSwapStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, Document{Title: "d", SourceType: SourceFile, ContentHash: "h"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	swapped, err := s.CompareAndSwapStatus(ctx, doc.ID,
		[]Status{StatusPending, StatusFailed}, StatusProcessing)
	if err != nil || !swapped {
		t.Fatalf("first swap: swapped=%v err=%v", swapped, err)
	}

	// The document is no longer pending, so a second swap must lose.
	swapped, err = s.CompareAndSwapStatus(ctx, doc.ID,
		[]Status{StatusPending, StatusFailed}, StatusProcessing)
	if err != nil {
		t.Fatalf("second swap: %v", err)
	}
	if swapped {
		t.Error("second swap should have been rejected")
	}

	got, _ := s.GetDocument(ctx, doc.ID)
	if got.Status != StatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.CreateDocument(ctx, Document{Title: "d", SourceType: SourceFile, ContentHash: "h"})

	if err := s.UpdateStatus(ctx, doc.ID, StatusFailed, "provider exploded"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := s.GetDocument(ctx, doc.ID)
	if got.Status != StatusFailed || got.ProcessingError != "provider exploded" {
		t.Errorf("got %s / %q", got.Status, got.ProcessingError)
	}

	if err := s.UpdateStatus(ctx, "missing", StatusReady, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.CreateDocument(ctx, Document{Title: "d", SourceType: SourceFile, ContentHash: "h"})

	first := []Chunk{
		{DocumentID: doc.ID, ChunkIndex: 0, Content: "part one", TokenCount: 2, Embedding: []float32{1, 0}, EmbeddingModel: "m"},
		{DocumentID: doc.ID, ChunkIndex: 1, Content: "part two", TokenCount: 2, Embedding: []float32{0, 1}, EmbeddingModel: "m"},
	}
	if err := s.ReplaceChunks(ctx, doc.ID, first); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}

	got, _ := s.GetDocument(ctx, doc.ID)
	if got.ChunkCount != 2 {
		t.Errorf("chunk count = %d, want 2", got.ChunkCount)
	}

	chunks, err := s.ListChunksByDocuments(ctx, []string{doc.ID})
	if err != nil {
		t.Fatalf("ListChunksByDocuments: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !reflect.DeepEqual(chunks[0].Embedding, []float32{1, 0}) {
		t.Errorf("embedding roundtrip: %v", chunks[0].Embedding)
	}

	// Replacing again must leave exactly the new set, not a merge.
	second := []Chunk{
		{DocumentID: doc.ID, ChunkIndex: 0, Content: "rewritten", TokenCount: 1, Embedding: []float32{1, 1}, EmbeddingModel: "m"},
	}
	if err := s.ReplaceChunks(ctx, doc.ID, second); err != nil {
		t.Fatalf("second ReplaceChunks: %v", err)
	}
	chunks, _ = s.ListChunksByDocuments(ctx, []string{doc.ID})
	if len(chunks) != 1 || chunks[0].Content != "rewritten" {
		t.Errorf("replacement not atomic: %+v", chunks)
	}
	got, _ = s.GetDocument(ctx, doc.ID)
	if got.ChunkCount != 1 {
		t.Errorf("chunk count = %d, want 1", got.ChunkCount)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.CreateDocument(ctx, Document{Title: "d", SourceType: SourceFile, ContentHash: "h"})
	_ = s.ReplaceChunks(ctx, doc.ID, []Chunk{
		{DocumentID: doc.ID, ChunkIndex: 0, Content: "c", Embedding: []float32{1}},
	})

	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("document still present: %v", err)
	}
	chunks, _ := s.ListChunksByDocuments(ctx, []string{doc.ID})
	if len(chunks) != 0 {
		t.Errorf("%d orphaned chunks left behind", len(chunks))
	}

	if err := s.DeleteDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestMarkUsed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.CreateDocument(ctx, Document{Title: "d", SourceType: SourceFile, ContentHash: "h"})
	if err := s.MarkUsed(ctx, []string{doc.ID}); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if err := s.MarkUsed(ctx, nil); err != nil {
		t.Fatalf("MarkUsed with no ids: %v", err)
	}

	got, _ := s.GetDocument(ctx, doc.ID)
	if got.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", got.UsageCount)
	}
	if got.LastUsedAt == nil {
		t.Error("last_used_at not stamped")
	}
}

func TestSetContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.CreateDocument(ctx, Document{
		Title: "crawled", SourceType: SourceURL, SourceURL: "https://example.com/a", ContentHash: "url-hash",
	})

	if err := s.SetContent(ctx, doc.ID, "fetched text", "new-hash"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	got, _ := s.GetDocument(ctx, doc.ID)
	if got.Content != "fetched text" || got.ContentHash != "new-hash" {
		t.Errorf("content not updated: %q / %q", got.Content, got.ContentHash)
	}
}

func TestListEligible_Visibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(title, owner string, admin bool) string {
		doc, err := s.CreateDocument(ctx, Document{
			Title: title, SourceType: SourceFile, ContentHash: title,
			IsAdminManaged: admin, UploadedBy: owner, Status: StatusReady,
		})
		if err != nil {
			t.Fatalf("CreateDocument %s: %v", title, err)
		}
		return doc.ID
	}

	adminID := mk("admin-doc", "admin", true)
	aID := mk("a-doc", "userA", false)
	mk("b-doc", "userB", false)

	// Admin-only visibility.
	docs, err := s.ListEligible(ctx, "", Visibility{IncludeAdminManaged: true})
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != adminID {
		t.Errorf("admin-only visibility returned %d docs", len(docs))
	}

	// userA sees the admin doc plus their own.
	docs, err = s.ListEligible(ctx, "", Visibility{
		Owner: "userA", IncludeAdminManaged: true, IncludeUserManaged: true,
	})
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	ids := map[string]bool{}
	for _, d := range docs {
		ids[d.ID] = true
	}
	if len(docs) != 2 || !ids[adminID] || !ids[aID] {
		t.Errorf("userA visibility wrong: %v", ids)
	}

	// No visibility at all yields nothing.
	docs, err = s.ListEligible(ctx, "", Visibility{})
	if err != nil || len(docs) != 0 {
		t.Errorf("empty visibility: %d docs, err %v", len(docs), err)
	}
}

func TestListEligible_SkipsInactiveAndNotReady(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ready, _ := s.CreateDocument(ctx, Document{
		Title: "ready", SourceType: SourceFile, ContentHash: "r",
		IsAdminManaged: true, Status: StatusReady,
	})
	_, _ = s.CreateDocument(ctx, Document{
		Title: "pending", SourceType: SourceFile, ContentHash: "p",
		IsAdminManaged: true,
	})
	inactive, _ := s.CreateDocument(ctx, Document{
		Title: "inactive", SourceType: SourceFile, ContentHash: "i",
		IsAdminManaged: true, Status: StatusReady,
	})
	if err := s.SetActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	docs, err := s.ListEligible(ctx, "", Visibility{IncludeAdminManaged: true})
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != ready.ID {
		t.Errorf("eligible set wrong: %d docs", len(docs))
	}
}

func TestListDocuments_Filter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _ = s.CreateDocument(ctx, Document{Title: "p1", SourceType: SourceFile, ContentHash: "1", DocType: DocTypePolicy, UploadedBy: "u1"})
	_, _ = s.CreateDocument(ctx, Document{Title: "r1", SourceType: SourceFile, ContentHash: "2", DocType: DocTypeReference, UploadedBy: "u2"})

	docs, err := s.ListDocuments(ctx, DocumentFilter{DocType: DocTypePolicy})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "p1" {
		t.Errorf("doc type filter: %d docs", len(docs))
	}

	docs, _ = s.ListDocuments(ctx, DocumentFilter{UploadedBy: "u2"})
	if len(docs) != 1 || docs[0].Title != "r1" {
		t.Errorf("owner filter: %d docs", len(docs))
	}

	docs, _ = s.ListDocuments(ctx, DocumentFilter{})
	if len(docs) != 2 {
		t.Errorf("unfiltered: %d docs, want 2", len(docs))
	}
}
