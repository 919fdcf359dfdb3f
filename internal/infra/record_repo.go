package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

type recordRepo struct {
	db *sql.DB
}

func NewRecordRepo(db *sql.DB) ports.RecordRepo {
	return &recordRepo{db: db}
}

func (r *recordRepo) Create(ctx context.Context, chatID int64, backend, role, text string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO records (chat_id, backend, role, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, chatID, backend, role, text, time.Now()).Scan(&id)
	return id, err
}

// GetHistory возвращает последние limit записей в хронологическом порядке
func (r *recordRepo) GetHistory(ctx context.Context, chatID int64, limit int) ([]ports.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, backend, role, text, created_at
		FROM records
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.Record
	for rows.Next() {
		var rec ports.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.ChatID,
			&rec.Backend,
			&rec.Role,
			&rec.Text,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// хронологический порядок
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (r *recordRepo) ListChats(ctx context.Context) ([]ports.ChatBackends, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, array_agg(DISTINCT backend) AS backends
		FROM records
		GROUP BY chat_id
		ORDER BY chat_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ports.ChatBackends
	for rows.Next() {
		var c ports.ChatBackends
		if err := rows.Scan(&c.ChatID, pq.Array(&c.Backends)); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *recordRepo) DeleteByChat(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE chat_id = $1`, chatID)
	return err
}
