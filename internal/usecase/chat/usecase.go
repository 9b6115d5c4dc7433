package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/courseqa/courseqa-backend/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// noMaterialsAnswer is returned without a model call when retrieval comes
// back empty. Synthesis over an empty context would only invite guessing.
const noMaterialsAnswer = "I couldn't find relevant materials for your question in the uploaded course documents."

// Usecase implements the question answering pipeline: embed the question,
// retrieve the nearest chunks, synthesize a grounded answer with source
// attribution.
type Usecase struct {
	chunkRepo    repository.ChunkRepository
	queryLog     repository.QueryLogRepository
	provider     ModelProvider
	systemPrompt string
	cfg          config.ChatConfig
	logger       *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	chunkRepo repository.ChunkRepository,
	queryLog repository.QueryLogRepository,
	provider ModelProvider,
	systemPrompt string,
	cfg config.ChatConfig,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		chunkRepo:    chunkRepo,
		queryLog:     queryLog,
		provider:     provider,
		systemPrompt: systemPrompt,
		cfg:          cfg,
		logger:       logger,
	}
}

// Answer runs the full query pipeline for one question. An empty
// SelectedFiles filter searches the whole corpus.
func (uc *Usecase) Answer(ctx context.Context, req *entity.ChatRequest, user entity.UserIdentity) (*entity.Answer, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return nil, fmt.Errorf("%w: message", entity.ErrMissingField)
	}

	fragments, err := uc.retrieve(ctx, question, req.SelectedFiles)
	if err != nil {
		return nil, err
	}

	if len(fragments) == 0 {
		ctxzap.Info(ctx, "retrieval returned nothing, answering without synthesis")
		answer := &entity.Answer{Text: noMaterialsAnswer, Sources: []string{}}
		uc.audit(ctx, user, question, nil, answer.Text)
		return answer, nil
	}

	answer, err := uc.synthesize(ctx, question, fragments)
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, user, question, fragments, answer.Text)

	return answer, nil
}

func (uc *Usecase) retrieve(ctx context.Context, question string, sourceFiles []string) ([]entity.Fragment, error) {
	embedding, err := uc.provider.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	fragments, err := uc.chunkRepo.SearchSimilar(ctx, embedding, uc.cfg.TopK, sourceFiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrRetrievalFailed, err)
	}

	ctxzap.Info(ctx, "chunks retrieved",
		zap.Int("fragment_count", len(fragments)),
		zap.Int("top_k", uc.cfg.TopK),
		zap.Strings("source_filter", sourceFiles),
	)

	return fragments, nil
}

func (uc *Usecase) synthesize(ctx context.Context, question string, fragments []entity.Fragment) (*entity.Answer, error) {
	userPrompt := buildUserPrompt(buildContext(fragments), question)

	text, err := uc.provider.Complete(ctx, uc.systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := sourceNames(fragments)

	ctxzap.Info(ctx, "answer generated",
		zap.Int("answer_length", len(text)),
		zap.Strings("sources", sources),
	)

	return &entity.Answer{
		Text:      appendSourcesLine(text, sources),
		Sources:   sources,
		Fragments: fragments,
	}, nil
}

// audit records the exchange. Audit failures are logged and swallowed so a
// history outage never breaks answering.
func (uc *Usecase) audit(ctx context.Context, user entity.UserIdentity, question string, fragments []entity.Fragment, answer string) {
	record := entity.QueryRecord{
		UserID:        user.ID,
		UserEmail:     user.Email,
		QueryText:     question,
		MatchedChunks: fragments,
		ModelResponse: answer,
		TopK:          uc.cfg.TopK,
	}

	if err := uc.queryLog.Insert(ctx, record); err != nil {
		ctxzap.Warn(ctx, "query audit write failed", zap.Error(err))
	}
}
