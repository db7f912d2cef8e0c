// Package mcp exposes the document session as Model Context Protocol tools.
package mcp

// AskQuestionInput defines the input parameters for the ask_question tool.
type AskQuestionInput struct {
	// Question is the natural-language question about the document.
	Question string `json:"question" jsonschema:"The question to answer from the document"`
}

// AskQuestionOutput contains the answer.
type AskQuestionOutput struct {
	// Answer is the model's reply, or an apology when the question could not be answered.
	Answer string `json:"answer"`
}

// SummarizeInput defines the input parameters for the summarize_document tool.
// This tool takes no parameters.
type SummarizeInput struct{}

// SummarizeOutput contains the document summary.
type SummarizeOutput struct {
	Summary string `json:"summary"`
}

// StatusInput defines the input parameters for the get_index_status tool.
// This tool takes no parameters.
type StatusInput struct{}

// StatusOutput describes the ingested document and its collection.
type StatusOutput struct {
	Document      string `json:"document"`
	Collection    string `json:"collection"`
	Ingested      bool   `json:"ingested"`
	Pages         int    `json:"pages"`
	Characters    int    `json:"characters"`
	StoredChunks  int    `json:"stored_chunks"`
	SummaryCached bool   `json:"summary_cached"`
}
