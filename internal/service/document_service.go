package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/domain"
)

const (
	documentMaxResults = 5
	minLiveQueryLength = 3
	previewLength      = 150
)

// DocumentSearchState es el estado del buscador de documentos.
type DocumentSearchState struct {
	Query       string                        `json:"query"`
	Collection  string                        `json:"collection"`
	Searching   bool                          `json:"searching"`
	HasSearched bool                          `json:"has_searched"`
	Results     []domain.DocumentSearchResult `json:"results"`
}

var (
	ErrEmptyFilePath   = errors.New("file path is empty")
	ErrEmptyDocumentID = errors.New("document id is empty")
)

type DocumentSearchService struct {
	client      backend.Client
	logger      *zap.Logger
	State       *Store[DocumentSearchState]
	Collections *Store[map[string]domain.CollectionInfo]
}

func NewDocumentSearchService(client backend.Client, logger *zap.Logger) *DocumentSearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentSearchService{
		client: client,
		logger: logger,
		State: NewStore("document_search", DocumentSearchState{
			Collection: domain.DefaultCollection,
			Results:    []domain.DocumentSearchResult{},
		}),
		Collections: NewStore("document_collections", map[string]domain.CollectionInfo{}),
	}
}

// Search busca en la coleccion indicada (general si viene vacia). Los errores
// del backend dejan la lista vacia.
func (s *DocumentSearchService) Search(ctx context.Context, query, collection string) ([]domain.DocumentSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	s.State.Set(DocumentSearchState{Query: query, Collection: collection, Searching: true, HasSearched: true, Results: s.State.Get().Results})

	env, err := s.client.SearchDocuments(ctx, domain.DocumentSearchRequest{Query: query, Collection: collection, MaxResults: documentMaxResults})
	results := []domain.DocumentSearchResult{}
	if err != nil {
		s.logger.Error("document search failed", zap.String("operation", "search_documents"), zap.Error(err))
	} else if env != nil && env.Success && env.Data != nil && env.Data.Results != nil {
		results = env.Data.Results
	}
	s.State.Set(DocumentSearchState{Query: query, Collection: collection, HasSearched: true, Results: results})
	if err != nil {
		return results, fmt.Errorf("search documents: %w", err)
	}
	return results, nil
}

// LiveSearch es la busqueda mientras se escribe: ignora textos de 2 caracteres o menos.
func (s *DocumentSearchService) LiveSearch(ctx context.Context, query, collection string) ([]domain.DocumentSearchResult, bool, error) {
	if len([]rune(strings.TrimSpace(query))) < minLiveQueryLength {
		return nil, false, nil
	}
	results, err := s.Search(ctx, query, collection)
	return results, true, err
}

// LoadCollections trae las colecciones una sola vez salvo que force sea true.
func (s *DocumentSearchService) LoadCollections(ctx context.Context, force bool) (map[string]domain.CollectionInfo, error) {
	if cur := s.Collections.Get(); len(cur) > 0 && !force {
		return cur, nil
	}
	if s.client == nil {
		return nil, ErrChatNotConfigured
	}
	env, err := s.client.Collections(ctx)
	if err != nil {
		s.logger.Error("load collections failed", zap.String("operation", "get_collections"), zap.Error(err))
		return nil, fmt.Errorf("collections: %w", err)
	}
	if env != nil && env.Success && env.Collections != nil {
		s.Collections.Set(env.Collections)
	}
	return s.Collections.Get(), nil
}

// Vectorize pide al backend indexar un archivo que el backend puede leer.
// Despues recarga las colecciones para reflejar el nuevo conteo.
func (s *DocumentSearchService) Vectorize(ctx context.Context, filePath, collection string, metadata map[string]any) (json.RawMessage, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, ErrEmptyFilePath
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	out, err := s.client.VectorizeDocument(ctx, filePath, collection, metadata)
	if err != nil {
		s.logger.Error("vectorize document failed", zap.String("operation", "vectorize_document"), zap.String("file_path", filePath), zap.Error(err))
		return nil, fmt.Errorf("vectorize document: %w", err)
	}
	s.reloadCollections(ctx)
	return out, nil
}

// Delete borra un documento de la coleccion y lo quita de los resultados visibles.
func (s *DocumentSearchService) Delete(ctx context.Context, docID, collection string) error {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return ErrEmptyDocumentID
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}
	if s == nil || s.client == nil {
		return ErrChatNotConfigured
	}
	if err := s.client.DeleteDocument(ctx, docID, collection); err != nil {
		s.logger.Error("delete document failed", zap.String("operation", "delete_document"), zap.String("document_id", docID), zap.Error(err))
		return fmt.Errorf("delete document: %w", err)
	}
	st := s.State.Get()
	kept := make([]domain.DocumentSearchResult, 0, len(st.Results))
	for _, r := range st.Results {
		if r.DocumentID() != docID {
			kept = append(kept, r)
		}
	}
	st.Results = kept
	s.State.Set(st)
	s.reloadCollections(ctx)
	return nil
}

func (s *DocumentSearchService) reloadCollections(ctx context.Context) {
	if _, err := s.LoadCollections(ctx, true); err != nil {
		s.logger.Debug("collections reload skipped", zap.String("operation", "get_collections"), zap.Error(err))
	}
}

func (s *DocumentSearchService) Clear() {
	s.State.Set(DocumentSearchState{Collection: s.State.Get().Collection, Results: []domain.DocumentSearchResult{}})
}

// Preview recorta el contenido a 150 caracteres.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
