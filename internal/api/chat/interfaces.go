package chat

import (
	"context"

	"github.com/courseqa/courseqa-backend/internal/entity"
)

type ChatUsecase interface {
	Answer(ctx context.Context, req *entity.ChatRequest, user entity.UserIdentity) (*entity.Answer, error)
}
