// Package agent sequences one conversational turn: extract, gate on intent,
// check the fictional-location violation, research, inject context, generate,
// and append the assistant reply.
package agent

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/conversations"
	"github.com/nir-assistant/server/internal/agent/extract"
	"github.com/nir-assistant/server/internal/agent/llm"
	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/research"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// generationFailureReply is returned when the response model errors out. The
// turn still ends with exactly one assistant message.
const generationFailureReply = "I encountered an error while processing your request. Please try again."

// Orchestrator drives the per-turn pipeline. Construct once and share; all
// per-turn state lives in the conversation log.
type Orchestrator struct {
	extractor     *extract.Extractor
	research      *research.Agent
	conversations *conversations.Manager

	response          einomodel.BaseChatModel
	responseCfg       model.ResponseModelConfig
	responseModelName string
}

func NewOrchestrator(
	extractor *extract.Extractor,
	researchAgent *research.Agent,
	manager *conversations.Manager,
	response einomodel.BaseChatModel,
	responseCfg model.ResponseModelConfig,
) *Orchestrator {
	return &Orchestrator{
		extractor:         extractor,
		research:          researchAgent,
		conversations:     manager,
		response:          response,
		responseCfg:       responseCfg,
		responseModelName: responseCfg.Model,
	}
}

// StartConversation seeds a fresh log with the persona system message.
func (o *Orchestrator) StartConversation(ctx context.Context, conversationID string) error {
	return o.conversations.Start(ctx, conversationID)
}

// ResetConversation clears the log entirely.
func (o *Orchestrator) ResetConversation(ctx context.Context, conversationID string) error {
	return o.conversations.Reset(ctx, conversationID)
}

// Handle runs one turn and returns the assistant's reply. Every completed
// turn appends exactly one assistant message; the gate and the violation
// short-circuit end the turn early with their own reply.
func (o *Orchestrator) Handle(ctx context.Context, conversationID, userMessage string) (string, error) {
	count, err := o.conversations.MessageCount(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if count == 0 {
		if err := o.conversations.Start(ctx, conversationID); err != nil {
			return "", err
		}
	}

	if err := o.conversations.Append(ctx, conversationID, schema.UserMessage(userMessage)); err != nil {
		return "", err
	}

	extraction := o.extractor.Extract(ctx, userMessage)
	logx.Debug().
		Str("intent", string(extraction.Intent)).
		Str("location", extraction.Location).
		Str("date", extraction.Date).
		Msg("extraction complete")

	if extraction.Intent.IsNonValid() {
		reply := model.GateMessage(extraction.Intent)
		if err := o.conversations.Append(ctx, conversationID, schema.AssistantMessage(reply, nil)); err != nil {
			return "", err
		}
		return reply, nil
	}

	if reply, violated, err := o.conversations.ViolationCheck(ctx, conversationID, extraction, userMessage); err != nil {
		return "", err
	} else if violated {
		return reply, nil
	}

	history, err := o.conversations.History(ctx, conversationID)
	if err != nil {
		return "", err
	}
	items := o.research.Research(ctx, extraction, history)
	if err := o.conversations.InjectResearch(ctx, conversationID, items); err != nil {
		return "", err
	}

	generationCtx, err := o.conversations.BuildGenerationContext(ctx, conversationID, extraction.Intent)
	if err != nil {
		return "", err
	}

	reply := o.generate(ctx, generationCtx)
	if err := o.conversations.Append(ctx, conversationID, schema.AssistantMessage(reply, nil)); err != nil {
		return "", err
	}
	return reply, nil
}

// generate calls the response model over the bounded context. A model error
// degrades to a fixed apology rather than failing the turn.
func (o *Orchestrator) generate(ctx context.Context, messages []*schema.Message) string {
	out, err := o.response.Generate(ctx, messages,
		einomodel.WithTemperature(o.responseCfg.Temperature),
		einomodel.WithMaxTokens(o.responseCfg.MaxTokens),
	)
	if err != nil {
		logx.Error().Err(err).Msg("response generation failed")
		return generationFailureReply
	}
	llm.LogUsage(o.responseModelName, out)
	return out.Content
}
