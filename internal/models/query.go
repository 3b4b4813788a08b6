package models

import "time"

// QueryRequest is the inbound contract: one document URL and an ordered,
// non-empty list of questions.
type QueryRequest struct {
	Documents string   `json:"documents" validate:"required,url,startswith=http"`
	Questions []string `json:"questions" validate:"required,min=1,dive,required"`
}

// QueryResponse carries one answer string per question, in question order.
type QueryResponse struct {
	Answers []string `json:"answers"`
}

// QuestionTiming records per-question durations for the optional query log.
type QuestionTiming struct {
	Question  string        `json:"question"`
	Answer    string        `json:"answer"`
	Fallback  bool          `json:"fallback"`
	Retrieval time.Duration `json:"retrieval"`
	Synthesis time.Duration `json:"synthesis"`
}

// QueryRecord is the optional persistent trace of one pipeline run. It is a
// sink, not authoritative state: failure to store one is never fatal.
type QueryRecord struct {
	ID          string           `json:"id" badgerhold:"key"`
	DocumentURL string           `json:"document_url"`
	Kind        DocumentKind     `json:"kind"`
	ChunkCount  int              `json:"chunk_count"`
	Backend     string           `json:"backend"` // Vector index backend actually used
	Questions   []QuestionTiming `json:"questions"`
	Duration    time.Duration    `json:"duration"`
	CreatedAt   time.Time        `json:"created_at"`
}
