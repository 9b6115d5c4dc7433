package corpus

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/courseqa/courseqa-backend/internal/pkg/logger"
	"github.com/courseqa/courseqa-backend/internal/pkg/response"
	"github.com/courseqa/courseqa-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const filesCacheKey = "files"

type Handler struct {
	usecase    CorpusUsecase
	cfg        config.IngestConfig
	validator  *validator.Validator
	filesCache *cache.Cache
}

func NewHandler(
	usecase CorpusUsecase,
	cfg config.IngestConfig,
	cacheTTL time.Duration,
	validator *validator.Validator,
) *Handler {
	return &Handler{
		usecase:    usecase,
		cfg:        cfg,
		validator:  validator,
		filesCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

// UploadFile handles POST /api/upload
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadFile")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		ctxzap.Warn(ctx, "no file provided")
		h.respondError(ctx, w, http.StatusBadRequest, "a file is required", nil)
		return
	}
	fh := files[0]

	if err := h.validator.ValidateUpload(fh); err != nil {
		ctxzap.Error(ctx, "failed to validate upload", zap.Error(err))
		h.handleUsecaseError(ctx, w, err)
		return
	}

	src, err := fh.Open()
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to open uploaded file", err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read uploaded file", err)
		return
	}

	ctxzap.Info(ctx, "ingesting uploaded file",
		zap.String("filename", fh.Filename),
		zap.Int64("size", fh.Size),
	)

	result, err := h.usecase.IngestDocument(ctx, fh.Filename, data)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.filesCache.Delete(filesCacheKey)

	response.JSON(w, http.StatusOK, &entity.UploadFileResponse{
		Message:         "file processed",
		EmbeddingResult: *result,
	})
}

// ListFiles handles GET /api/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListFiles")

	if cached, ok := h.filesCache.Get(filesCacheKey); ok {
		response.JSON(w, http.StatusOK, cached)
		return
	}

	files, err := h.usecase.ListFiles(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	details := make([]*entity.FileDetail, 0, len(files))
	for _, f := range files {
		details = append(details, toFileDetail(f))
	}

	resp := &entity.ListFilesResponse{Files: details}
	h.filesCache.SetDefault(filesCacheKey, resp)

	ctxzap.Info(ctx, "files listed successfully", zap.Int("count", len(details)))
	response.JSON(w, http.StatusOK, resp)
}

// DeleteFile handles DELETE /api/files/{file_name}
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "file_name")

	ctx := logger.AddFields(r.Context(),
		zap.String("file_name", fileName),
		zap.String("action", "DeleteFile"),
	)

	ctxzap.Info(ctx, "deleting file")

	if err := h.usecase.DeleteFile(ctx, fileName); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.filesCache.Delete(filesCacheKey)

	response.JSON(w, http.StatusOK, &entity.DeleteFileResponse{
		Message: "file deleted",
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
	case errors.Is(err, entity.ErrFileNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "file not found", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrInvalidFile) || errors.Is(err, entity.ErrFileTooLarge) || errors.Is(err, entity.ErrInvalidExtension):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrEmbeddingFailed) || errors.Is(err, entity.ErrDimensionMismatch):
		h.respondError(ctx, w, http.StatusBadGateway, "embedding provider error", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
