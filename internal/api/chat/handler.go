package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/courseqa/courseqa-backend/internal/pkg/logger"
	"github.com/courseqa/courseqa-backend/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Ask handles POST /api/chat
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	// Identity comes from the upstream auth proxy; absence is acceptable.
	user := entity.UserIdentity{
		ID:    r.Header.Get("X-User-Id"),
		Email: r.Header.Get("X-User-Email"),
	}

	ctxzap.Info(ctx, "answering question",
		zap.Int("message_length", len(req.Message)),
		zap.Int("selected_files", len(req.SelectedFiles)),
	)

	answer, err := h.usecase.Answer(ctx, &req, user)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, &entity.ChatResponse{
		Response: answer.Text,
		Sources:  answer.Sources,
	})
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrInvalidParameter):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrEmbeddingFailed) || errors.Is(err, entity.ErrSynthesisFailed):
		h.respondError(ctx, w, http.StatusBadGateway, "model provider error", err)
	case errors.Is(err, entity.ErrRetrievalFailed):
		h.respondError(ctx, w, http.StatusInternalServerError, "retrieval error", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
