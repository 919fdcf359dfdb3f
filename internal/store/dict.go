// Package store keeps the bot's small per-chat dictionaries in memory and
// writes every change through to a key/value repository, one key at a time.
package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

// ChatKey формирует ключ словаря для чата
func ChatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Dict is a typed bucket of the repository. Reads never touch the repository;
// a write reaches memory only after the repository accepted it.
type Dict[V any] struct {
	repo   ports.KVRepo
	bucket string

	mu    sync.RWMutex
	items map[string]V
}

func NewDict[V any](repo ports.KVRepo, bucket string) *Dict[V] {
	return &Dict[V]{
		repo:   repo,
		bucket: bucket,
		items:  make(map[string]V),
	}
}

// Load заменяет содержимое памяти тем, что лежит в репозитории
func (d *Dict[V]) Load(ctx context.Context) error {
	raw, err := d.repo.LoadBucket(ctx, d.bucket)
	if err != nil {
		return fmt.Errorf("load bucket %s: %w", d.bucket, err)
	}

	items := make(map[string]V, len(raw))
	for k, b := range raw {
		var v V
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("decode %s/%s: %w", d.bucket, k, err)
		}
		items[k] = v
	}

	d.mu.Lock()
	d.items = items
	d.mu.Unlock()
	return nil
}

func (d *Dict[V]) Get(key string) (V, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.items[key]
	return v, ok
}

func (d *Dict[V]) Set(ctx context.Context, key string, v V) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", d.bucket, key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.repo.Put(ctx, d.bucket, key, b); err != nil {
		return fmt.Errorf("put %s/%s: %w", d.bucket, key, err)
	}
	d.items[key] = v
	return nil
}

// Delete is a no-op for a missing key.
func (d *Dict[V]) Delete(ctx context.Context, key string) error {
	_, _, err := d.Pop(ctx, key)
	return err
}

func (d *Dict[V]) Pop(ctx context.Context, key string) (V, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.items[key]
	if !ok {
		return v, false, nil
	}
	if err := d.repo.Delete(ctx, d.bucket, key); err != nil {
		var zero V
		return zero, false, fmt.Errorf("delete %s/%s: %w", d.bucket, key, err)
	}
	delete(d.items, key)
	return v, true, nil
}

// SetDefault возвращает текущее значение, а если его нет: сохраняет def
func (d *Dict[V]) SetDefault(ctx context.Context, key string, def V) (V, error) {
	if v, ok := d.Get(key); ok {
		return v, nil
	}

	b, err := json.Marshal(def)
	if err != nil {
		return def, fmt.Errorf("encode %s/%s: %w", d.bucket, key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// могли записать, пока ждали лок
	if v, ok := d.items[key]; ok {
		return v, nil
	}
	if err := d.repo.Put(ctx, d.bucket, key, b); err != nil {
		return def, fmt.Errorf("put %s/%s: %w", d.bucket, key, err)
	}
	d.items[key] = def
	return def, nil
}

func (d *Dict[V]) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.repo.DeleteBucket(ctx, d.bucket); err != nil {
		return fmt.Errorf("clear %s: %w", d.bucket, err)
	}
	d.items = make(map[string]V)
	return nil
}

func (d *Dict[V]) Keys() []string {
	d.mu.RLock()
	keys := make([]string, 0, len(d.items))
	for k := range d.items {
		keys = append(keys, k)
	}
	d.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

func (d *Dict[V]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}
