package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	answer   *entity.Answer
	err      error
	lastReq  *entity.ChatRequest
	lastUser entity.UserIdentity
}

func (f *fakeUsecase) Answer(ctx context.Context, req *entity.ChatRequest, user entity.UserIdentity) (*entity.Answer, error) {
	f.lastReq = req
	f.lastUser = user
	return f.answer, f.err
}

func testRouter(uc *fakeUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc))
	return r
}

func TestAsk(t *testing.T) {
	uc := &fakeUsecase{answer: &entity.Answer{
		Text:    "Dijkstra computes shortest paths.\n\n**Sources:** `graphs.pdf`",
		Sources: []string{"graphs.pdf"},
	}}
	router := testRouter(uc)

	body := `{"message":"How does Dijkstra work?","selected_files":["graphs.pdf"]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-User-Email", "u1@example.com")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Response, "**Sources:** `graphs.pdf`")
	assert.Equal(t, []string{"graphs.pdf"}, resp.Sources)

	assert.Equal(t, []string{"graphs.pdf"}, uc.lastReq.SelectedFiles)
	assert.Equal(t, "u1", uc.lastUser.ID)
	assert.Equal(t, "u1@example.com", uc.lastUser.Email)
}

func TestAskInvalidBody(t *testing.T) {
	router := testRouter(&fakeUsecase{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskMissingMessage(t *testing.T) {
	uc := &fakeUsecase{err: entity.ErrMissingField}
	router := testRouter(uc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskProviderDown(t *testing.T) {
	uc := &fakeUsecase{err: entity.ErrSynthesisFailed}
	router := testRouter(uc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"q"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
