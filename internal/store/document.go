package store

import "time"

// Status is the processing lifecycle state of a document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Scope is the visibility tier of a document.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeUser   Scope = "user"
)

// SourceType identifies where a document's text came from.
type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

// DocType categorizes the kind of knowledge a document holds.
type DocType string

const (
	DocTypePolicy    DocType = "policy"
	DocTypeReference DocType = "reference"
	DocTypeCustom    DocType = "custom"
)

// Document is a unit of ingested knowledge. Its chunks are exclusively
// owned: deleting the document cascades to them.
type Document struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DocType         DocType    `json:"doc_type"`
	Scope           Scope      `json:"scope"`
	IsAdminManaged  bool       `json:"is_admin_managed"`
	SourceType      SourceType `json:"source_type"`
	SourceURL       string     `json:"source_url,omitempty"`
	Content         string     `json:"-"` // raw extracted text, kept for reprocessing
	ContentHash     string     `json:"content_hash"`
	Status          Status     `json:"status"`
	ProcessingError string     `json:"processing_error,omitempty"`
	ChunkCount      int        `json:"chunk_count"`
	TargetFunctions []string   `json:"target_functions,omitempty"`
	TargetPlatforms []string   `json:"target_platforms,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Priority        int        `json:"priority"`
	IsActive        bool       `json:"is_active"`
	UsageCount      int        `json:"usage_count"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	UploadedBy      string     `json:"uploaded_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MatchesFunction reports whether the document applies to the given
// function. An empty restriction set matches everything.
func (d *Document) MatchesFunction(fn string) bool {
	return fn == "" || len(d.TargetFunctions) == 0 || contains(d.TargetFunctions, fn)
}

// MatchesPlatform reports whether the document applies to the given platform.
func (d *Document) MatchesPlatform(platform string) bool {
	return platform == "" || len(d.TargetPlatforms) == 0 || contains(d.TargetPlatforms, platform)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Chunk is a bounded slice of a document's text, the unit of embedding
// and retrieval. ChunkIndex is zero-based and unique within a document.
type Chunk struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	ChunkIndex     int       `json:"chunk_index"`
	Content        string    `json:"content"`
	TokenCount     int       `json:"token_count"`
	Embedding      []float32 `json:"-"`
	EmbeddingModel string    `json:"embedding_model"`
	StartChar      int       `json:"start_char"`
	EndChar        int       `json:"end_char"`
}

// DocumentFilter narrows ListDocuments results. Zero values mean "no filter".
type DocumentFilter struct {
	Status     Status
	DocType    DocType
	UploadedBy string
	ActiveOnly bool
	Limit      int
}

// Visibility describes which documents a search may see: admin-managed
// documents, and/or the caller's own user-managed documents.
type Visibility struct {
	Owner               string
	IncludeAdminManaged bool
	IncludeUserManaged  bool
}
