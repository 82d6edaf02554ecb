// Package knowledge manages the documentation store backed by PostgreSQL +
// pgvector, and the cached embedding provider used to query it.
//
// Documents are immutable once ingested; the only write path is the offline
// indexer (see internal/ingest). Retrieval goes through the store's
// match_documents_vector procedure for similarity search, with an optional
// full-text keyword search.
package knowledge
