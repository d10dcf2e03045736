package models

// Document is an uploaded file after text extraction.
type Document struct {
	ID        string
	Filename  string
	MediaType string
	Content   string
}

// Chunk is a bounded slice of a document's text, the unit that gets embedded.
type Chunk struct {
	Source  string
	Index   int
	Content string
}

// Credentials are the caller's keys for the hosted services. They travel
// with each ingestion and are never stored.
type Credentials struct {
	OpenAIAPIKey   string
	PineconeAPIKey string
}
