// Package conversations owns the per-conversation message log: seeding the
// persona, appending turns, injecting transient system context, bounding the
// context window sent to generation, and the fictional-location short-circuit.
package conversations

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/prompts"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// violationFallback is returned when the redirect generation itself fails.
const violationFallback = "I'd love to help, but I need a real destination on Earth! Could you tell me about an actual place you'd like to visit?"

const (
	violationTemperature float32 = 0.5
	violationMaxTokens           = 100
)

// Manager is the only component that mutates a conversation's message log.
// The chat model is used solely for the violation redirect.
type Manager struct {
	repo model.ConversationRepository
	chat einomodel.BaseChatModel
	cfg  model.ConversationConfig
}

func NewManager(repo model.ConversationRepository, chat einomodel.BaseChatModel, cfg model.ConversationConfig) *Manager {
	return &Manager{repo: repo, chat: chat, cfg: cfg}
}

// Start resets the log to exactly one system message carrying the persona.
func (m *Manager) Start(ctx context.Context, conversationID string) error {
	if err := m.repo.ClearHistory(ctx, conversationID); err != nil {
		return err
	}
	persona, err := prompts.Persona(ctx)
	if err != nil {
		return err
	}
	return m.repo.AddMessage(ctx, conversationID, schema.SystemMessage(persona))
}

// Append adds one message at the end of the log.
func (m *Manager) Append(ctx context.Context, conversationID string, msg *schema.Message) error {
	return m.repo.AddMessage(ctx, conversationID, msg)
}

// Reset clears the log entirely.
func (m *Manager) Reset(ctx context.Context, conversationID string) error {
	return m.repo.ClearHistory(ctx, conversationID)
}

// History returns the current log in order.
func (m *Manager) History(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	history, err := m.repo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return history.Messages, nil
}

// MessageCount reports the current log length.
func (m *Manager) MessageCount(ctx context.Context, conversationID string) (int, error) {
	return m.repo.GetMessageCount(ctx, conversationID)
}

// InjectResearch joins the research items into one system message and inserts
// it second-to-last, ahead of the pending user turn. No items, no insert.
func (m *Manager) InjectResearch(ctx context.Context, conversationID string, items []model.ResearchItem) error {
	if len(items) == 0 {
		return nil
	}
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	return m.repo.InsertBeforeLast(ctx, conversationID, schema.SystemMessage(strings.Join(texts, "\n")))
}

// ViolationCheck short-circuits the turn when the extracted location is the
// fictional sentinel: it generates one redirect reply, appends it as the
// assistant message, and reports the short-circuit. The redirect itself never
// fails the turn.
func (m *Manager) ViolationCheck(ctx context.Context, conversationID string, extraction model.ExtractionResult, userMessage string) (string, bool, error) {
	if !extraction.IsFictional() {
		return "", false, nil
	}

	reply := m.generateRedirect(ctx, userMessage)
	if err := m.repo.AddMessage(ctx, conversationID, schema.AssistantMessage(reply, nil)); err != nil {
		return "", false, err
	}
	return reply, true, nil
}

func (m *Manager) generateRedirect(ctx context.Context, userMessage string) string {
	redirectPrompt, err := prompts.Violation(ctx, userMessage)
	if err != nil {
		logx.Error().Err(err).Msg("violation prompt render failed")
		return violationFallback
	}
	out, err := m.chat.Generate(ctx, []*schema.Message{schema.UserMessage(redirectPrompt)},
		einomodel.WithTemperature(violationTemperature),
		einomodel.WithMaxTokens(violationMaxTokens),
	)
	if err != nil {
		logx.Error().Err(err).Msg("violation redirect generation failed")
		return violationFallback
	}
	return out.Content
}

// BuildGenerationContext assembles the bounded message list actually sent to
// generation: the stored log, plus an intent-specific instruction inserted
// second-to-last for destination and attractions turns, trimmed to the
// configured maximum. The stored log is never mutated here.
func (m *Manager) BuildGenerationContext(ctx context.Context, conversationID string, intent model.Intent) ([]*schema.Message, error) {
	stored, err := m.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, len(stored))
	copy(messages, stored)

	if intent.NeedsInstruction() {
		instruction, err := prompts.IntentInstruction(ctx, intent)
		if err != nil {
			return nil, err
		}
		messages = insertBeforeLast(messages, schema.SystemMessage(instruction))
	}

	return trimContext(messages, m.cfg.MaxContextMessages), nil
}

func insertBeforeLast(messages []*schema.Message, msg *schema.Message) []*schema.Message {
	if len(messages) == 0 {
		return []*schema.Message{msg}
	}
	out := make([]*schema.Message, 0, len(messages)+1)
	out = append(out, messages[:len(messages)-1]...)
	out = append(out, msg, messages[len(messages)-1])
	return out
}

// trimContext bounds the context window. System messages are preserved in
// full when they fit, with the most recent conversation messages filling the
// remaining slots in original order. When system messages alone exceed the
// budget, only the first survives. Oldest conversation messages are dropped
// first even if later system context refers to them.
func trimContext(messages []*schema.Message, maxMessages int) []*schema.Message {
	if len(messages) <= maxMessages {
		return messages
	}

	var system, conversation []*schema.Message
	for _, msg := range messages {
		if msg.Role == schema.System {
			system = append(system, msg)
		} else {
			conversation = append(conversation, msg)
		}
	}

	if slots := maxMessages - len(system); slots > 0 {
		trimmed := conversation
		if len(trimmed) > slots {
			trimmed = trimmed[len(trimmed)-slots:]
		}
		return append(append([]*schema.Message{}, system...), trimmed...)
	}

	recent := conversation
	if len(recent) > maxMessages-1 {
		recent = recent[len(recent)-(maxMessages-1):]
	}
	if len(system) > 0 {
		return append([]*schema.Message{system[0]}, recent...)
	}
	if len(recent) > maxMessages {
		recent = recent[len(recent)-maxMessages:]
	}
	return recent
}
