package backend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riskadvisor/internal/domain"
)

const fallbackExplanation = "The AI agents encountered an issue processing your request. Please try rephrasing your question or contact support if the issue persists."

// ProcessQueryOrFallback nunca falla: si el backend no responde arma una
// respuesta processing_error local. POST /query no se reintenta.
func ProcessQueryOrFallback(ctx context.Context, client Client, req domain.QueryRequest, logger *zap.Logger) *domain.QueryResponse {
	resp, err := client.ProcessQuery(ctx, req)
	if err == nil {
		return resp
	}
	if logger != nil {
		logger.Warn("query processing failed, using fallback", zap.String("question", req.Question), zap.Error(err))
	}
	return FallbackResponse(req.Question, time.Now())
}

func FallbackResponse(question string, now time.Time) *domain.QueryResponse {
	return &domain.QueryResponse{
		QueryID:      uuid.NewString(),
		Question:     question,
		Explanation:  fallbackExplanation,
		Summary:      "Processing error - please try again",
		Timestamp:    now.UTC().Format(time.RFC3339),
		ResponseType: domain.ResponseTypeProcessingError,
	}
}

// ProcessBatch envia preguntas independientes en paralelo. El resultado
// respeta el orden de entrada; el primer error cancela el resto.
func ProcessBatch(ctx context.Context, client Client, questions []string, limit int) ([]*domain.QueryResponse, error) {
	out := make([]*domain.QueryResponse, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, q := range questions {
		g.Go(func() error {
			resp, err := client.ProcessQuery(gctx, domain.QueryRequest{Question: q})
			if err != nil {
				return err
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
