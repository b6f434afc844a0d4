package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atopos-hq/chatcore/internal/domain"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func humanMsg(text string, offset int) domain.ChatMessage {
	v := true
	return domain.ChatMessage{
		FromUser:  &v,
		Message:   text,
		CreatedAt: testBase.Add(time.Duration(offset) * time.Second),
	}
}

func botMsg(text string, offset int) domain.ChatMessage {
	v := false
	return domain.ChatMessage{
		FromUser:  &v,
		Message:   text,
		CreatedAt: testBase.Add(time.Duration(offset) * time.Second),
	}
}

func unknownRoleMsg(text string, offset int) domain.ChatMessage {
	return domain.ChatMessage{
		Message:   text,
		CreatedAt: testBase.Add(time.Duration(offset) * time.Second),
	}
}

func TestToConversation(t *testing.T) {
	msgs := []domain.ChatMessage{
		humanMsg("hello", 0),
		botMsg("hi there", 1),
		humanMsg("how are you", 2),
	}

	conversation := ToConversation(msgs)

	require.Len(t, conversation, 3)
	assert.Equal(t, domain.RoleHuman, conversation[0].Role)
	assert.Equal(t, "hello", conversation[0].Content)
	assert.Equal(t, domain.RoleBot, conversation[1].Role)
	assert.Equal(t, "hi there", conversation[1].Content)
	assert.Equal(t, domain.RoleHuman, conversation[2].Role)
}

func TestToConversationDropsUnknownRoles(t *testing.T) {
	msgs := []domain.ChatMessage{
		humanMsg("hello", 0),
		unknownRoleMsg("garbage", 1),
		botMsg("hi", 2),
	}

	conversation := ToConversation(msgs)

	require.Len(t, conversation, 2)
	assert.Equal(t, "hello", conversation[0].Content)
	assert.Equal(t, "hi", conversation[1].Content)
}

func TestToConversationEmpty(t *testing.T) {
	assert.Empty(t, ToConversation(nil))
}

func TestPairQueryResponsesOverwritesPendingQuery(t *testing.T) {
	// [H:"a", H:"b", B:"x"] -> only the latest pending query pairs.
	msgs := []domain.ChatMessage{
		humanMsg("a", 0),
		humanMsg("b", 1),
		botMsg("x", 2),
	}

	pairs := PairQueryResponses(msgs)

	require.Len(t, pairs, 1)
	assert.Equal(t, domain.QueryResponse{UserQuery: "b", BotResponse: "x"}, pairs[0])
}

func TestPairQueryResponsesDropsSecondBotMessage(t *testing.T) {
	// [H:"a", B:"x", B:"y"] -> "y" has no pending query.
	msgs := []domain.ChatMessage{
		humanMsg("a", 0),
		botMsg("x", 1),
		botMsg("y", 2),
	}

	pairs := PairQueryResponses(msgs)

	require.Len(t, pairs, 1)
	assert.Equal(t, domain.QueryResponse{UserQuery: "a", BotResponse: "x"}, pairs[0])
}

func TestPairQueryResponsesDropsLeadingBotMessage(t *testing.T) {
	// [B:"x", H:"a", B:"y"] -> the leading bot message is unmatched.
	msgs := []domain.ChatMessage{
		botMsg("x", 0),
		humanMsg("a", 1),
		botMsg("y", 2),
	}

	pairs := PairQueryResponses(msgs)

	require.Len(t, pairs, 1)
	assert.Equal(t, domain.QueryResponse{UserQuery: "a", BotResponse: "y"}, pairs[0])
}

func TestPairQueryResponsesDropsTrailingQuery(t *testing.T) {
	pairs := PairQueryResponses([]domain.ChatMessage{humanMsg("a", 0)})
	assert.Empty(t, pairs)
}

func TestPairQueryResponsesSkipsUnknownRoles(t *testing.T) {
	msgs := []domain.ChatMessage{
		humanMsg("a", 0),
		unknownRoleMsg("noise", 1),
		botMsg("x", 2),
	}

	pairs := PairQueryResponses(msgs)

	require.Len(t, pairs, 1)
	assert.Equal(t, domain.QueryResponse{UserQuery: "a", BotResponse: "x"}, pairs[0])
}

func TestPairQueryResponsesPreservesOrder(t *testing.T) {
	msgs := []domain.ChatMessage{
		humanMsg("q1", 0),
		botMsg("r1", 1),
		humanMsg("q2", 2),
		botMsg("r2", 3),
		humanMsg("q3", 4),
		botMsg("r3", 5),
	}

	pairs := PairQueryResponses(msgs)

	require.Len(t, pairs, 3)
	assert.Equal(t, "q1", pairs[0].UserQuery)
	assert.Equal(t, "r2", pairs[1].BotResponse)
	assert.Equal(t, "q3", pairs[2].UserQuery)
}
