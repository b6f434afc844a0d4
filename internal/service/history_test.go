package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atopos-hq/chatcore/internal/domain"
	"github.com/atopos-hq/chatcore/internal/repository"
)

type stubQueries struct {
	descRows      []repository.ChatHistory
	ascRows       []repository.ChatHistory
	listRows      []repository.ChatHistory
	sessionIDs    []string
	firstMessages map[string]repository.ChatHistory
	updateResult  repository.ChatHistory
	updateErr     error
	deleteErr     error

	gotDescParams repository.ListSessionChatHistoryParams
	gotAscLimit   int32
	gotUpdate     repository.UpdateChatHistoryParams
}

func (s *stubQueries) CreateChatHistory(_ context.Context, arg repository.CreateChatHistoryParams) (repository.ChatHistory, error) {
	return repository.ChatHistory{
		ID:        "generated",
		ChatbotID: arg.ChatbotID,
		SessionID: arg.SessionID,
		FromUser:  pgtype.Bool{Bool: arg.FromUser, Valid: true},
		Message:   arg.Message,
	}, nil
}

func (s *stubQueries) ListSessionChatHistoryDesc(_ context.Context, arg repository.ListSessionChatHistoryParams) ([]repository.ChatHistory, error) {
	s.gotDescParams = arg
	return s.descRows, nil
}

func (s *stubQueries) ListSessionChatHistoryAsc(_ context.Context, _ string, limit int32) ([]repository.ChatHistory, error) {
	s.gotAscLimit = limit
	return s.ascRows, nil
}

func (s *stubQueries) ListChatHistory(_ context.Context, _ repository.ListChatHistoryParams) ([]repository.ChatHistory, error) {
	return s.listRows, nil
}

func (s *stubQueries) UpdateChatHistory(_ context.Context, arg repository.UpdateChatHistoryParams) (repository.ChatHistory, error) {
	s.gotUpdate = arg
	return s.updateResult, s.updateErr
}

func (s *stubQueries) DeleteChatHistory(context.Context, string) error {
	return s.deleteErr
}

func (s *stubQueries) ListDistinctSessionIDs(_ context.Context, _ repository.ListDistinctSessionIDsParams) ([]string, error) {
	return s.sessionIDs, nil
}

func (s *stubQueries) GetFirstSessionMessage(_ context.Context, _, sessionID string) (repository.ChatHistory, error) {
	row, ok := s.firstMessages[sessionID]
	if !ok {
		return repository.ChatHistory{}, pgx.ErrNoRows
	}
	return row, nil
}

func historyRow(id string, fromUser bool, offset int) repository.ChatHistory {
	ts := testBase.Add(time.Duration(offset) * time.Second)
	return repository.ChatHistory{
		ID:        id,
		ChatbotID: "bot-1",
		SessionID: "session-1",
		FromUser:  pgtype.Bool{Bool: fromUser, Valid: true},
		Message:   "msg-" + id,
		CreatedAt: pgtype.Timestamptz{Time: ts, Valid: true},
		UpdatedAt: pgtype.Timestamptz{Time: ts, Valid: true},
	}
}

func TestListBySessionReturnsChronologicalOrder(t *testing.T) {
	// The storage page arrives newest first; callers get it oldest first.
	stub := &stubQueries{descRows: []repository.ChatHistory{
		historyRow("c", true, 30),
		historyRow("b", false, 20),
		historyRow("a", true, 10),
	}}
	svc := NewChatHistoryService(stub)

	msgs, err := svc.ListBySession(context.Background(), "session-1", 0, 5)
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}

	// Pagination is applied to the newest-first ordering with the default
	// page size.
	assert.Equal(t, int32(20), stub.gotDescParams.Limit)
	assert.Equal(t, int32(5), stub.gotDescParams.Offset)
}

func TestUpdateOnlyMessageLeavesOtherFieldsAlone(t *testing.T) {
	updated := historyRow("a", true, 10)
	updated.Message = "rewritten"
	updated.UpdatedAt = pgtype.Timestamptz{Time: testBase.Add(time.Hour), Valid: true}
	stub := &stubQueries{updateResult: updated}
	svc := NewChatHistoryService(stub)

	newText := "rewritten"
	msg, err := svc.Update(context.Background(), "a", UpdateMessageParams{Message: &newText})
	require.NoError(t, err)

	// Only the supplied field reaches the storage layer.
	assert.Nil(t, stub.gotUpdate.ChatbotID)
	assert.Nil(t, stub.gotUpdate.SessionID)
	assert.Nil(t, stub.gotUpdate.FromUser)
	require.NotNil(t, stub.gotUpdate.Message)
	assert.Equal(t, "rewritten", *stub.gotUpdate.Message)

	assert.Equal(t, "bot-1", msg.ChatbotID)
	assert.Equal(t, "session-1", msg.SessionID)
	require.NotNil(t, msg.FromUser)
	assert.True(t, *msg.FromUser)
	assert.True(t, msg.UpdatedAt.After(msg.CreatedAt))
}

func TestUpdateMissingIDReturnsNotFound(t *testing.T) {
	svc := NewChatHistoryService(&stubQueries{updateErr: pgx.ErrNoRows})

	_, err := svc.Update(context.Background(), "missing", UpdateMessageParams{})
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestDeleteMissingIDReturnsNotFound(t *testing.T) {
	svc := NewChatHistoryService(&stubQueries{deleteErr: pgx.ErrNoRows})

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestRetrievalPairsReadsAscendingRows(t *testing.T) {
	stub := &stubQueries{ascRows: []repository.ChatHistory{
		historyRow("q", true, 10),
		historyRow("r", false, 20),
	}}
	svc := NewChatHistoryService(stub)

	pairs, err := svc.RetrievalPairs(context.Background(), "session-1", 50)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, "msg-q", pairs[0].UserQuery)
	assert.Equal(t, "msg-r", pairs[0].BotResponse)
	assert.Equal(t, int32(50), stub.gotAscLimit)
}

func TestSessionSummariesToleratesVanishedSession(t *testing.T) {
	stub := &stubQueries{
		sessionIDs: []string{"s1", "s2"},
		firstMessages: map[string]repository.ChatHistory{
			"s1": historyRow("first", true, 10),
		},
	}
	svc := NewChatHistoryService(stub)

	summaries, err := svc.SessionSummaries(context.Background(), "bot-1", 0, 0)
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, "s1", summaries[0].SessionID)
	require.NotNil(t, summaries[0].FirstMessage)
	assert.Equal(t, "first", summaries[0].FirstMessage.ID)
	assert.Equal(t, "s2", summaries[1].SessionID)
	assert.Nil(t, summaries[1].FirstMessage)
}
