package knowledge

// Document is a persisted documentation record.
// Produced by the offline indexer, consumed by retrieval; there is no update
// path at request time.
type Document struct {
	Content   string    // Document text content
	URL       string    // Canonical documentation URL (unique)
	Embedding []float32 // Content embedding, dimension per db/migrations
}

// Match is a single retrieval result. Transient: produced per request,
// never persisted.
type Match struct {
	Content    string
	URL        string
	Similarity float64 // Cosine similarity to the query; 0 for keyword hits
}
