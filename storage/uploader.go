package storage

import (
	"context"
	"io"
)

// UploadResult описывает загруженный объект: ключ в бакете,
// публичный адрес и ETag от хранилища.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader — хранилище для фотографий площадок и аватаров
// пользователей. Сервисы зависят от интерфейса, а не от конкретного
// облака.
type FileUploader interface {
	// Upload кладёт объект под заданным ключом, перезаписывая существующий.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete удаляет объект; отсутствие объекта не считается ошибкой.
	Delete(ctx context.Context, key string) error

	// GetPublicURL строит публичный адрес объекта без обращения к хранилищу.
	GetPublicURL(key string) string
}
