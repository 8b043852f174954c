package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
)

// MemoryConversationRepository keeps conversation logs in process memory.
// Used when no Redis address is configured, and in tests.
type MemoryConversationRepository struct {
	mu   sync.RWMutex
	logs map[string][]*schema.Message
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{logs: make(map[string][]*schema.Message)}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[conversationID] = append(r.logs[conversationID], message)
	return nil
}

func (r *MemoryConversationRepository) InsertBeforeLast(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log := r.logs[conversationID]
	if len(log) == 0 {
		r.logs[conversationID] = []*schema.Message{message}
		return nil
	}
	out := make([]*schema.Message, 0, len(log)+1)
	out = append(out, log[:len(log)-1]...)
	out = append(out, message, log[len(log)-1])
	r.logs[conversationID] = out
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log := r.logs[conversationID]
	msgs := make([]*schema.Message, len(log))
	copy(msgs, log)
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logs, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.logs[conversationID]), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
