package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatHistory mirrors one row of the chat_history table. FromUser is kept
// nullable: rows written before the role flag became mandatory may carry NULL.
type ChatHistory struct {
	ID        string
	ChatbotID string
	SessionID string
	FromUser  pgtype.Bool
	Message   string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// Queries is the handwritten query layer over the chat_history table. Each
// method performs one unit of work; connection acquisition and release is
// handled per call by the pool.
type Queries struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

const chatHistoryColumns = `id, chatbot_id, session_id, from_user, message, created_at, updated_at`

func scanChatHistory(row pgx.Row) (ChatHistory, error) {
	var ch ChatHistory
	err := row.Scan(
		&ch.ID,
		&ch.ChatbotID,
		&ch.SessionID,
		&ch.FromUser,
		&ch.Message,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	return ch, err
}

func collectChatHistory(rows pgx.Rows) ([]ChatHistory, error) {
	defer rows.Close()
	var items []ChatHistory
	for rows.Next() {
		ch, err := scanChatHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ch)
	}
	return items, rows.Err()
}

type CreateChatHistoryParams struct {
	ChatbotID string
	SessionID string
	FromUser  bool
	Message   string
}

func (q *Queries) CreateChatHistory(ctx context.Context, arg CreateChatHistoryParams) (ChatHistory, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO chat_history (id, chatbot_id, session_id, from_user, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+chatHistoryColumns,
		uuid.New().String(), arg.ChatbotID, arg.SessionID, arg.FromUser, arg.Message,
	)
	return scanChatHistory(row)
}

type ListSessionChatHistoryParams struct {
	SessionID string
	Limit     int32
	Offset    int32
}

// ListSessionChatHistoryDesc returns the requested page ordered most recent
// first; pagination walks backward from the newest message.
func (q *Queries) ListSessionChatHistoryDesc(ctx context.Context, arg ListSessionChatHistoryParams) ([]ChatHistory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+chatHistoryColumns+`
		FROM chat_history
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		arg.SessionID, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectChatHistory(rows)
}

// ListSessionChatHistoryAsc returns a session's rows oldest first. A limit of
// zero means no limit.
func (q *Queries) ListSessionChatHistoryAsc(ctx context.Context, sessionID string, limit int32) ([]ChatHistory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+chatHistoryColumns+`
		FROM chat_history
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT NULLIF($2, 0)`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectChatHistory(rows)
}

type ListChatHistoryParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListChatHistory(ctx context.Context, arg ListChatHistoryParams) ([]ChatHistory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+chatHistoryColumns+`
		FROM chat_history
		LIMIT $1 OFFSET $2`,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectChatHistory(rows)
}

type UpdateChatHistoryParams struct {
	ID        string
	ChatbotID *string
	SessionID *string
	FromUser  *bool
	Message   *string
}

// UpdateChatHistory rewrites only the supplied fields and stamps updated_at
// unconditionally. Returns pgx.ErrNoRows when the id does not exist.
func (q *Queries) UpdateChatHistory(ctx context.Context, arg UpdateChatHistoryParams) (ChatHistory, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE chat_history
		SET chatbot_id = COALESCE($2, chatbot_id),
		    session_id = COALESCE($3, session_id),
		    from_user  = COALESCE($4, from_user),
		    message    = COALESCE($5, message),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+chatHistoryColumns,
		arg.ID, arg.ChatbotID, arg.SessionID, arg.FromUser, arg.Message,
	)
	return scanChatHistory(row)
}

// DeleteChatHistory removes a row by id. Returns pgx.ErrNoRows when the id
// does not exist.
func (q *Queries) DeleteChatHistory(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM chat_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type ListDistinctSessionIDsParams struct {
	ChatbotID string
	Limit     int32
	Offset    int32
}

// ListDistinctSessionIDs pages over the distinct session identifiers for a
// bot; limit and offset apply to the distinct set, not to message rows. The
// ORDER BY keeps successive pages stable; without it Postgres is free to
// return the distinct set in any order.
func (q *Queries) ListDistinctSessionIDs(ctx context.Context, arg ListDistinctSessionIDsParams) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT session_id
		FROM chat_history
		WHERE chatbot_id = $1
		ORDER BY session_id
		LIMIT $2 OFFSET $3`,
		arg.ChatbotID, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetFirstSessionMessage returns the earliest row of a session scoped to the
// owning bot.
func (q *Queries) GetFirstSessionMessage(ctx context.Context, chatbotID, sessionID string) (ChatHistory, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+chatHistoryColumns+`
		FROM chat_history
		WHERE chatbot_id = $1 AND session_id = $2
		ORDER BY created_at ASC
		LIMIT 1`,
		chatbotID, sessionID,
	)
	return scanChatHistory(row)
}
