package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/atopos-hq/chatcore/internal/config"
	"github.com/atopos-hq/chatcore/internal/domain"
	"github.com/atopos-hq/chatcore/internal/repository"
)

// HistoryQueries is the query surface consumed by ChatHistoryService;
// *repository.Queries is the production implementation.
type HistoryQueries interface {
	CreateChatHistory(ctx context.Context, arg repository.CreateChatHistoryParams) (repository.ChatHistory, error)
	ListSessionChatHistoryDesc(ctx context.Context, arg repository.ListSessionChatHistoryParams) ([]repository.ChatHistory, error)
	ListSessionChatHistoryAsc(ctx context.Context, sessionID string, limit int32) ([]repository.ChatHistory, error)
	ListChatHistory(ctx context.Context, arg repository.ListChatHistoryParams) ([]repository.ChatHistory, error)
	UpdateChatHistory(ctx context.Context, arg repository.UpdateChatHistoryParams) (repository.ChatHistory, error)
	DeleteChatHistory(ctx context.Context, id string) error
	ListDistinctSessionIDs(ctx context.Context, arg repository.ListDistinctSessionIDsParams) ([]string, error)
	GetFirstSessionMessage(ctx context.Context, chatbotID, sessionID string) (repository.ChatHistory, error)
}

// ChatHistoryService owns reads and writes of the chat_history table and the
// conversation reconstructions derived from it.
type ChatHistoryService struct {
	queries HistoryQueries
}

func NewChatHistoryService(queries HistoryQueries) *ChatHistoryService {
	return &ChatHistoryService{queries: queries}
}

// Create persists one message row. The identifier and creation timestamp are
// assigned at insert and never change afterwards.
func (s *ChatHistoryService) Create(ctx context.Context, chatbotID, sessionID string, fromUser bool, message string) (*domain.ChatMessage, error) {
	row, err := s.queries.CreateChatHistory(ctx, repository.CreateChatHistoryParams{
		ChatbotID: chatbotID,
		SessionID: sessionID,
		FromUser:  fromUser,
		Message:   message,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat history: %w", err)
	}
	return rowToMessage(row), nil
}

// ListBySession returns one page of a session's messages in chronological
// order. Pagination walks backward from the newest message: limit and offset
// are applied to the most-recent-first ordering at the storage layer, and the
// resulting page is re-sorted ascending before it is returned.
func (s *ChatHistoryService) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = config.SessionPageSize
	}
	rows, err := s.queries.ListSessionChatHistoryDesc(ctx, repository.ListSessionChatHistoryParams{
		SessionID: sessionID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list session chat history: %w", err)
	}
	msgs := rowsToMessages(rows)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

// ListAll returns one page of messages across all sessions in storage order;
// used for administrative listing.
func (s *ChatHistoryService) ListAll(ctx context.Context, limit, offset int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = config.AdminPageSize
	}
	rows, err := s.queries.ListChatHistory(ctx, repository.ListChatHistoryParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	return rowsToMessages(rows), nil
}

// UpdateMessageParams carries the optional fields of Update; nil fields are
// left untouched.
type UpdateMessageParams struct {
	ChatbotID *string
	SessionID *string
	FromUser  *bool
	Message   *string
}

// Update rewrites the supplied fields of a message and stamps updated_at even
// when no field changed.
func (s *ChatHistoryService) Update(ctx context.Context, id string, params UpdateMessageParams) (*domain.ChatMessage, error) {
	row, err := s.queries.UpdateChatHistory(ctx, repository.UpdateChatHistoryParams{
		ID:        id,
		ChatbotID: params.ChatbotID,
		SessionID: params.SessionID,
		FromUser:  params.FromUser,
		Message:   params.Message,
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("update chat history: %w", err)
	}
	return rowToMessage(row), nil
}

// Delete removes a message by id, hard delete.
func (s *ChatHistoryService) Delete(ctx context.Context, id string) error {
	if err := s.queries.DeleteChatHistory(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrMessageNotFound
		}
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}

// RetrievalPairs reconstructs a session's history as ordered (user query,
// bot response) pairs. A limit of zero reads the whole session.
func (s *ChatHistoryService) RetrievalPairs(ctx context.Context, sessionID string, limit int) ([]domain.QueryResponse, error) {
	rows, err := s.queries.ListSessionChatHistoryAsc(ctx, sessionID, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list session chat history: %w", err)
	}
	return PairQueryResponses(rowsToMessages(rows)), nil
}

// LLMConversation reconstructs the most recent conversation window as a
// role-tagged transcript in chronological order.
func (s *ChatHistoryService) LLMConversation(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	msgs, err := s.ListBySession(ctx, sessionID, config.ConversationWindow, 0)
	if err != nil {
		return nil, err
	}
	return ToConversation(msgs), nil
}

// SessionSummaries pages over a bot's distinct sessions and attaches each
// session's earliest message. One lookup is issued per session; page sizes
// are small and the lookup is index-backed. FirstMessage is nil when the
// session's rows vanished between the listing and the lookup.
func (s *ChatHistoryService) SessionSummaries(ctx context.Context, botID string, limit, offset int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = config.SummaryPageSize
	}
	ids, err := s.queries.ListDistinctSessionIDs(ctx, repository.ListDistinctSessionIDsParams{
		ChatbotID: botID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list distinct sessions: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(ids))
	for _, sessionID := range ids {
		summary := domain.SessionSummary{SessionID: sessionID}
		row, err := s.queries.GetFirstSessionMessage(ctx, botID, sessionID)
		if err != nil {
			if err != pgx.ErrNoRows {
				return nil, fmt.Errorf("get first session message: %w", err)
			}
		} else {
			summary.FirstMessage = rowToMessage(row)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
