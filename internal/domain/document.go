package domain

const DefaultCollection = "general"

type DocumentSearchRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type DocumentSearchResult struct {
	Content         string         `json:"content"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	SimilarityScore float64        `json:"similarity_score"`
	Source          string         `json:"source"`
}

// DocumentID lee el id del documento desde la metadata (document_id, doc_id o id).
func (r DocumentSearchResult) DocumentID() string {
	for _, key := range []string{"document_id", "doc_id", "id"} {
		if v, ok := r.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// DocumentSearchEnvelope es la respuesta de POST /documents/search.
type DocumentSearchEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Results []DocumentSearchResult `json:"results"`
	} `json:"data,omitempty"`
}

// CollectionsEnvelope es la respuesta de GET /documents/collections.
type CollectionsEnvelope struct {
	Success     bool                      `json:"success"`
	Collections map[string]CollectionInfo `json:"collections"`
}

type CollectionInfo struct {
	DocumentCount int    `json:"document_count"`
	Description   string `json:"description,omitempty"`
}
