package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFileRepo struct {
	files map[string]entity.File
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]entity.File)}
}

func (f *fakeFileRepo) Upsert(ctx context.Context, file entity.File) (*entity.File, error) {
	file.ID = int64(len(f.files) + 1)
	f.files[file.Name] = file
	return &file, nil
}

func (f *fakeFileRepo) List(ctx context.Context) ([]*entity.File, error) {
	out := make([]*entity.File, 0, len(f.files))
	for name := range f.files {
		file := f.files[name]
		out = append(out, &file)
	}
	return out, nil
}

func (f *fakeFileRepo) Delete(ctx context.Context, name string) error {
	if _, ok := f.files[name]; !ok {
		return entity.ErrFileNotFound
	}
	delete(f.files, name)
	return nil
}

type fakeChunkRepo struct {
	ops      []string
	inserted []entity.Chunk
}

func (f *fakeChunkRepo) Insert(ctx context.Context, chunks []entity.Chunk) ([]int, error) {
	f.ops = append(f.ops, "insert")
	f.inserted = append(f.inserted, chunks...)
	return nil, nil
}

func (f *fakeChunkRepo) DeleteBySource(ctx context.Context, sourceFile string) error {
	f.ops = append(f.ops, "delete:"+sourceFile)
	return nil
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, embedding []float32, topK int, sourceFiles []string) ([]entity.Fragment, error) {
	return nil, nil
}

type fakeEmbedder struct {
	calls     int
	failCalls map[int]bool
}

func (f *fakeEmbedder) Dimension() int { return 4 }
func (f *fakeEmbedder) BatchSize() int { return 2 }

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failCalls[f.calls] {
		return nil, fmt.Errorf("%w: provider down", entity.ErrEmbeddingFailed)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0, 0}
	}
	return vectors, nil
}

type fakeStorage struct {
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(ctx context.Context, name string, data []byte) error {
	f.objects[name] = data
	return nil
}

func (f *fakeStorage) Remove(ctx context.Context, names []string) error {
	for _, name := range names {
		delete(f.objects, name)
	}
	return nil
}

type fakeExtractor struct {
	text string
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, ext string) string {
	return f.text
}

func testUsecase(text string, embedder *fakeEmbedder) (*Usecase, *fakeFileRepo, *fakeChunkRepo, *fakeStorage) {
	fileRepo := newFakeFileRepo()
	chunkRepo := &fakeChunkRepo{}
	storage := newFakeStorage()

	uc := NewUsecase(fileRepo, chunkRepo, &fakeExtractor{text: text}, embedder, storage, config.IngestConfig{
		ChunkSize:    5,
		ChunkOverlap: 1,
		MaxFileSize:  1024,
	}, zap.NewNop())

	return uc, fileRepo, chunkRepo, storage
}

func testCtx() context.Context {
	return ctxzap.ToContext(context.Background(), zap.NewNop())
}

func TestIngestDocumentSuccess(t *testing.T) {
	text := strings.Repeat("word ", 12)
	uc, fileRepo, chunkRepo, storage := testUsecase(text, &fakeEmbedder{})

	result, err := uc.IngestDocument(testCtx(), "lecture.pdf", []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, entity.IngestStatusSuccess, result.Status)
	// 12 words, window 5, step 4: offsets 0, 4, 8.
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, chunkRepo.inserted, 3)
	for i, c := range chunkRepo.inserted {
		assert.Equal(t, "lecture.pdf", c.Metadata.SourceFile)
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, "pdf", c.Metadata.FileType)
		assert.Len(t, c.Embedding, 4)
	}

	assert.Contains(t, fileRepo.files, "lecture.pdf")
	assert.Contains(t, storage.objects, "lecture.pdf")
}

func TestIngestDocumentClearsPreviousChunksFirst(t *testing.T) {
	uc, _, chunkRepo, _ := testUsecase(strings.Repeat("word ", 12), &fakeEmbedder{})

	_, err := uc.IngestDocument(testCtx(), "lecture.pdf", []byte("%PDF"))

	require.NoError(t, err)
	require.NotEmpty(t, chunkRepo.ops)
	assert.Equal(t, "delete:lecture.pdf", chunkRepo.ops[0])
	assert.Equal(t, "insert", chunkRepo.ops[len(chunkRepo.ops)-1])
}

func TestIngestDocumentNoText(t *testing.T) {
	uc, fileRepo, chunkRepo, _ := testUsecase("   ", &fakeEmbedder{})

	result, err := uc.IngestDocument(testCtx(), "scan.pdf", []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, entity.IngestStatusNoText, result.Status)
	assert.Zero(t, result.Attempted)
	assert.Empty(t, chunkRepo.inserted)
	// The file is still registered so the operator can see the dud upload.
	assert.Contains(t, fileRepo.files, "scan.pdf")
}

func TestIngestDocumentPartialBatchFailure(t *testing.T) {
	embedder := &fakeEmbedder{failCalls: map[int]bool{2: true}}
	uc, _, chunkRepo, _ := testUsecase(strings.Repeat("word ", 12), embedder)

	result, err := uc.IngestDocument(testCtx(), "lecture.pdf", []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, entity.IngestStatusSuccess, result.Status)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, chunkRepo.inserted, 2)
}

func TestIngestDocumentAllBatchesFail(t *testing.T) {
	embedder := &fakeEmbedder{failCalls: map[int]bool{1: true, 2: true}}
	uc, _, _, _ := testUsecase(strings.Repeat("word ", 12), embedder)

	_, err := uc.IngestDocument(testCtx(), "lecture.pdf", []byte("%PDF"))

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrEmbeddingFailed)
}

func TestIngestDocumentRejectsUnknownExtension(t *testing.T) {
	uc, _, _, _ := testUsecase("text", &fakeEmbedder{})

	_, err := uc.IngestDocument(testCtx(), "notes.exe", []byte("MZ"))

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvalidExtension)
}

func TestIngestDocumentSanitizesName(t *testing.T) {
	uc, fileRepo, _, _ := testUsecase(strings.Repeat("word ", 6), &fakeEmbedder{})

	_, err := uc.IngestDocument(testCtx(), "My Notes (v2).pdf", []byte("%PDF"))

	require.NoError(t, err)
	assert.Contains(t, fileRepo.files, "My_Notes_v2.pdf")
}

func TestIngestRecords(t *testing.T) {
	uc, fileRepo, chunkRepo, _ := testUsecase("", &fakeEmbedder{})

	data := []byte(`{"text":"In the beginning","book":"Genesis","chapter":1,"verse":1,"version":"KJV"}
not json at all
{"text":"And the earth was without form","book":"Genesis","chapter":1,"verse":2,"version":"KJV"}
`)

	result, err := uc.IngestDocument(testCtx(), "genesis.jsonl", data)

	require.NoError(t, err)
	assert.Equal(t, entity.IngestStatusSuccess, result.Status)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)

	require.Len(t, chunkRepo.inserted, 2)
	first := chunkRepo.inserted[0].Metadata
	assert.Equal(t, "genesis.jsonl", first.SourceFile)
	assert.Equal(t, 0, first.ChunkIndex)
	assert.Equal(t, "jsonl", first.FileType)
	assert.Equal(t, "Genesis", first.Book)
	assert.Equal(t, 1, first.Chapter)
	assert.Equal(t, 1, first.Verse)
	assert.Equal(t, "KJV", first.Version)
	assert.Equal(t, 2, chunkRepo.inserted[1].Metadata.Verse)

	assert.Equal(t, "jsonl", fileRepo.files["genesis.jsonl"].FileType)
}

func TestIngestRecordsEmptyFile(t *testing.T) {
	uc, _, chunkRepo, _ := testUsecase("", &fakeEmbedder{})

	result, err := uc.IngestDocument(testCtx(), "empty.jsonl", []byte("\n\nnot json\n"))

	require.NoError(t, err)
	assert.Equal(t, entity.IngestStatusNoText, result.Status)
	assert.Empty(t, chunkRepo.inserted)
}

func TestDeleteFile(t *testing.T) {
	uc, fileRepo, chunkRepo, storage := testUsecase(strings.Repeat("word ", 6), &fakeEmbedder{})
	ctx := testCtx()

	_, err := uc.IngestDocument(ctx, "lecture.pdf", []byte("%PDF"))
	require.NoError(t, err)

	require.NoError(t, uc.DeleteFile(ctx, "lecture.pdf"))

	assert.NotContains(t, fileRepo.files, "lecture.pdf")
	assert.NotContains(t, storage.objects, "lecture.pdf")
	assert.Equal(t, "delete:lecture.pdf", chunkRepo.ops[len(chunkRepo.ops)-1])
}

func TestDeleteFileNotFound(t *testing.T) {
	uc, _, _, _ := testUsecase("", &fakeEmbedder{})

	err := uc.DeleteFile(testCtx(), "missing.pdf")

	assert.ErrorIs(t, err, entity.ErrFileNotFound)
}
