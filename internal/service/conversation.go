package service

import "github.com/atopos-hq/chatcore/internal/domain"

// ToConversation maps chronologically ordered rows to a role-tagged
// transcript. Rows without a recorded role are skipped; this is a deliberate
// filter for malformed legacy rows, not an error.
func ToConversation(msgs []domain.ChatMessage) []domain.ConversationMessage {
	conversation := make([]domain.ConversationMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.FromUser == nil {
			continue
		}
		role := domain.RoleBot
		if *m.FromUser {
			role = domain.RoleHuman
		}
		conversation = append(conversation, domain.ConversationMessage{
			Role:    role,
			Content: m.Message,
		})
	}
	return conversation
}

// PairQueryResponses folds chronologically ordered rows into (user query,
// bot response) pairs with a one-slot pending-query accumulator:
//
//   - a human row overwrites the pending query; an earlier unanswered query
//     is discarded,
//   - a bot row pairs with the pending query and clears it; with no pending
//     query the bot row is dropped,
//   - a trailing unanswered query never appears in the output.
//
// The last-pending-wins semantics are part of the conversation contract
// consumed by retrieval chains; do not replace with FIFO queuing.
func PairQueryResponses(msgs []domain.ChatMessage) []domain.QueryResponse {
	var pairs []domain.QueryResponse
	var pending *string

	for _, m := range msgs {
		if m.FromUser == nil {
			continue
		}
		if *m.FromUser {
			query := m.Message
			pending = &query
			continue
		}
		if pending != nil {
			pairs = append(pairs, domain.QueryResponse{
				UserQuery:   *pending,
				BotResponse: m.Message,
			})
			pending = nil
		}
	}
	return pairs
}
