package model

// DocumentChunk is an overlapping text window cut from a source document,
// ready for embedding and indexing.
type DocumentChunk struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
}

// RetrievedChunk is a stored chunk returned by similarity search.
type RetrievedChunk struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// UploadDocumentResponse is the response after uploading a document.
type UploadDocumentResponse struct {
	Filename         string `json:"filename"`
	Chunks           int    `json:"chunks"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// ListDocumentsResponse is the response for listing ingested documents.
type ListDocumentsResponse struct {
	Documents []string `json:"documents"`
}
