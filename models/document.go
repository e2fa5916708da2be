package models

// Document is one knowledge-base article used for retrieval.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
