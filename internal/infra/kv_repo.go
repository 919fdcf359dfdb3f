package infra

import (
	"context"
	"database/sql"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

type kvRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) ports.KVRepo {
	return &kvRepo{db: db}
}

func (r *kvRepo) LoadBucket(ctx context.Context, bucket string) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value
		FROM kv_store
		WHERE bucket = $1
	`, bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (r *kvRepo) Put(ctx context.Context, bucket, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_store (bucket, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (bucket, key)
		DO UPDATE SET value = $3::jsonb, updated_at = NOW()
	`, bucket, key, string(value))
	return err
}

func (r *kvRepo) Delete(ctx context.Context, bucket, key string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM kv_store WHERE bucket = $1 AND key = $2
	`, bucket, key)
	return err
}

func (r *kvRepo) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE bucket = $1`, bucket)
	return err
}
