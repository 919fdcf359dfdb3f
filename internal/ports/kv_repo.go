package ports

import "context"

// KVRepo: хранилище маленьких словарей бота (имена, блокировки, сессии).
// Значения уже сериализованы, репозиторий про типы ничего не знает.
type KVRepo interface {
	LoadBucket(ctx context.Context, bucket string) (map[string][]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	Delete(ctx context.Context, bucket, key string) error
	DeleteBucket(ctx context.Context, bucket string) error
}
