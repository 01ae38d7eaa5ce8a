package dto

import "github.com/google/uuid"

// PublishEmbedDocumentMessage is the background work order to rebuild a
// document's embeddings and summary.
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
