package entity

import "mime/multipart"

type UploadFileRequest struct {
	File *multipart.FileHeader
}

type UploadFileResponse struct {
	Message         string       `json:"message"`
	EmbeddingResult IngestResult `json:"embedding_result"`
}

type FileDetail struct {
	Name       string `json:"file_name"`
	FileType   string `json:"file_type"`
	UploadedAt string `json:"uploaded_at"`
}

type ListFilesResponse struct {
	Files []*FileDetail `json:"files"`
}

type DeleteFileResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
