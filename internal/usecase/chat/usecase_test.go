package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChunkRepo struct {
	fragments  []entity.Fragment
	lastTopK   int
	lastFilter []string
	searchErr  error
}

func (f *fakeChunkRepo) Insert(ctx context.Context, chunks []entity.Chunk) ([]int, error) {
	return nil, nil
}

func (f *fakeChunkRepo) DeleteBySource(ctx context.Context, sourceFile string) error {
	return nil
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, embedding []float32, topK int, sourceFiles []string) ([]entity.Fragment, error) {
	f.lastTopK = topK
	f.lastFilter = sourceFiles
	return f.fragments, f.searchErr
}

type fakeQueryLog struct {
	records   []entity.QueryRecord
	insertErr error
}

func (f *fakeQueryLog) Insert(ctx context.Context, record entity.QueryRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, record)
	return nil
}

type fakeProvider struct {
	answer         string
	completeErr    error
	lastUserPrompt string
	completeCalls  int
}

func (f *fakeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.completeCalls++
	f.lastUserPrompt = userPrompt
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.answer, nil
}

func testUsecase(repo *fakeChunkRepo, log *fakeQueryLog, provider *fakeProvider) *Usecase {
	return NewUsecase(repo, log, provider, "answer from context only", config.ChatConfig{TopK: 10}, zap.NewNop())
}

func testCtx() context.Context {
	return ctxzap.ToContext(context.Background(), zap.NewNop())
}

func courseFragments() []entity.Fragment {
	return []entity.Fragment{
		{Text: "Dijkstra finds shortest paths.", SourceFile: "graphs.pdf", ChunkIndex: 3, Score: 0.91},
		{Text: "BFS explores level by level.", SourceFile: "graphs.pdf", ChunkIndex: 1, Score: 0.85},
		{Text: "Sorting lower bound is n log n.", SourceFile: "sorting.pptx", ChunkIndex: 0, Score: 0.77},
	}
}

func TestAnswerGrounded(t *testing.T) {
	repo := &fakeChunkRepo{fragments: courseFragments()}
	log := &fakeQueryLog{}
	provider := &fakeProvider{answer: "Dijkstra computes shortest paths."}
	uc := testUsecase(repo, log, provider)

	answer, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "How does Dijkstra work?"}, entity.UserIdentity{ID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"graphs.pdf", "sorting.pptx"}, answer.Sources)
	assert.Contains(t, answer.Text, "Dijkstra computes shortest paths.")
	assert.Contains(t, answer.Text, "**Sources:** `graphs.pdf`, `sorting.pptx`")

	// Context carries every fragment with its provenance tag.
	assert.Contains(t, provider.lastUserPrompt, "[source_file: graphs.pdf]\nDijkstra finds shortest paths.")
	assert.Contains(t, provider.lastUserPrompt, "[source_file: sorting.pptx]")
	assert.Contains(t, provider.lastUserPrompt, "Question: How does Dijkstra work?")
}

func TestAnswerPassesFilterAndTopK(t *testing.T) {
	repo := &fakeChunkRepo{fragments: courseFragments()}
	uc := testUsecase(repo, &fakeQueryLog{}, &fakeProvider{answer: "ok"})

	_, err := uc.Answer(testCtx(), &entity.ChatRequest{
		Message:       "question",
		SelectedFiles: []string{"graphs.pdf"},
	}, entity.UserIdentity{})

	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastTopK)
	assert.Equal(t, []string{"graphs.pdf"}, repo.lastFilter)
}

func TestAnswerEmptyRetrievalShortCircuits(t *testing.T) {
	repo := &fakeChunkRepo{}
	log := &fakeQueryLog{}
	provider := &fakeProvider{answer: "should not be called"}
	uc := testUsecase(repo, log, provider)

	answer, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "anything relevant?"}, entity.UserIdentity{})

	require.NoError(t, err)
	assert.Equal(t, noMaterialsAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, provider.completeCalls)

	// The miss is still audited.
	require.Len(t, log.records, 1)
	assert.Equal(t, noMaterialsAnswer, log.records[0].ModelResponse)
}

func TestAnswerEmptyMessage(t *testing.T) {
	uc := testUsecase(&fakeChunkRepo{}, &fakeQueryLog{}, &fakeProvider{})

	_, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "   "}, entity.UserIdentity{})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	repo := &fakeChunkRepo{searchErr: fmt.Errorf("connection refused")}
	uc := testUsecase(repo, &fakeQueryLog{}, &fakeProvider{})

	_, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "question"}, entity.UserIdentity{})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrRetrievalFailed)
}

func TestAnswerSynthesisFailure(t *testing.T) {
	repo := &fakeChunkRepo{fragments: courseFragments()}
	provider := &fakeProvider{completeErr: fmt.Errorf("%w: model unavailable", entity.ErrSynthesisFailed)}
	uc := testUsecase(repo, &fakeQueryLog{}, provider)

	_, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "question"}, entity.UserIdentity{})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrSynthesisFailed)
}

func TestAnswerAuditFailureIsNonFatal(t *testing.T) {
	repo := &fakeChunkRepo{fragments: courseFragments()}
	log := &fakeQueryLog{insertErr: fmt.Errorf("history table gone")}
	uc := testUsecase(repo, log, &fakeProvider{answer: "fine"})

	answer, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "question"}, entity.UserIdentity{})

	require.NoError(t, err)
	assert.Contains(t, answer.Text, "fine")
}

func TestAnswerAuditSnapshotsRetrievedSet(t *testing.T) {
	repo := &fakeChunkRepo{fragments: courseFragments()}
	log := &fakeQueryLog{}
	uc := testUsecase(repo, log, &fakeProvider{answer: "fine"})

	_, err := uc.Answer(testCtx(), &entity.ChatRequest{Message: "question"}, entity.UserIdentity{ID: "u1", Email: "u1@example.com"})

	require.NoError(t, err)
	require.Len(t, log.records, 1)
	record := log.records[0]
	assert.Equal(t, "u1", record.UserID)
	assert.Equal(t, "u1@example.com", record.UserEmail)
	assert.Equal(t, "question", record.QueryText)
	assert.Len(t, record.MatchedChunks, 3)
	assert.Equal(t, 10, record.TopK)
}
