package service

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atopos-hq/chatcore/internal/domain"
	"github.com/atopos-hq/chatcore/internal/repository"
)

// pgTimestamptzToTime converts pgtype.Timestamptz to time.Time.
func pgTimestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if ts.Valid {
		return ts.Time
	}
	return time.Time{}
}

// pgBoolToPtr converts pgtype.Bool to *bool, nil when the column was NULL.
func pgBoolToPtr(b pgtype.Bool) *bool {
	if b.Valid {
		v := b.Bool
		return &v
	}
	return nil
}

func rowToMessage(row repository.ChatHistory) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        row.ID,
		ChatbotID: row.ChatbotID,
		SessionID: row.SessionID,
		FromUser:  pgBoolToPtr(row.FromUser),
		Message:   row.Message,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt: pgTimestamptzToTime(row.UpdatedAt),
	}
}

func rowsToMessages(rows []repository.ChatHistory) []domain.ChatMessage {
	msgs := make([]domain.ChatMessage, len(rows))
	for i, r := range rows {
		msgs[i] = *rowToMessage(r)
	}
	return msgs
}
