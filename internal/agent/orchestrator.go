package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/coursemind/coursemind/internal/models"
	"github.com/coursemind/coursemind/internal/tools"
	"github.com/rs/zerolog/log"
)

const defaultMaxTokens = 800

// degradedAnswer is returned when a round's tool dispatch fails and
// the model produced no usable text alongside its tool request.
const degradedAnswer = "I was unable to retrieve course information for this question. Please try again."

// toolCall is one tool invocation request parsed from a model response.
type toolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// Answer is the terminal output of one top-level query: the model's
// final text plus the provenance of the last tool execution that
// produced any (empty when no tool ran).
type Answer struct {
	Text    string
	Sources []models.Source
}

// messageCreator is the narrow slice of the Anthropic SDK the
// orchestrator needs; tests substitute a scripted fake.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// runState enumerates the round state machine. The loop in Run walks
// these states under a hard step ceiling, which makes the termination
// guarantee structural: even a model that requests tools forever gets
// at most maxRounds tool rounds and one forced final call.
type runState int

const (
	stateRoundStart runState = iota
	stateAwaitModel
	stateToolDispatch
	stateRoundEnd
	stateForcedFinal
	stateTerminal
)

// Orchestrator drives the model through at most maxRounds rounds of
// tool use, dispatching tool calls through a registry and folding the
// results back into the conversation.
type Orchestrator struct {
	llm       messageCreator
	model     string
	maxTokens int64
	maxRounds int
}

// NewOrchestrator creates an orchestrator backed by Anthropic Claude
// or a compatible provider behind a custom base URL.
func NewOrchestrator(apiKey, model, baseURL string, maxRounds int) *Orchestrator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Orchestrator{
		llm:       client.Messages,
		model:     model,
		maxTokens: defaultMaxTokens,
		maxRounds: maxRounds,
	}
}

// Run answers one top-level query. It issues at most maxRounds+1
// model calls: one per round, plus a single tools-disabled call when
// the round budget runs out while the model still wants a tool. Model
// and network errors are infrastructure failures and propagate; tool
// failures degrade to the best available text instead.
func (o *Orchestrator) Run(ctx context.Context, query, history string, registry *tools.Registry) (Answer, error) {
	base := buildSystemPrompt(history)
	toolParams := toolUnionParams(registry.Definitions())
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
	}

	var (
		ans            Answer
		resp           *anthropic.Message
		roundText      string
		pendingCalls   []toolCall
		pendingResults []anthropic.ContentBlockParamUnion
	)

	round := 1
	state := stateRoundStart
	system := base

	// Each round visits at most four states; forced final and
	// terminal add one step each.
	ceiling := o.maxRounds*4 + 2

	for step := 0; step < ceiling; step++ {
		switch state {

		case stateRoundStart:
			system = roundAwareSystemPrompt(base, round, o.maxRounds)
			state = stateAwaitModel

		case stateAwaitModel:
			var err error
			resp, err = o.llm.New(ctx, o.messageParams(messages, system, toolParams))
			if err != nil {
				return Answer{}, fmt.Errorf("model call failed: %w", err)
			}
			roundText, pendingCalls = parseResponse(resp)

			log.Debug().
				Int("round", round).
				Str("stop_reason", string(resp.StopReason)).
				Int("tool_calls", len(pendingCalls)).
				Msg("orchestrator round")

			if resp.StopReason != "tool_use" || len(pendingCalls) == 0 {
				ans.Text = roundText
				state = stateTerminal
			} else {
				state = stateToolDispatch
			}

		case stateToolDispatch:
			results, err := o.dispatch(ctx, registry, pendingCalls, &ans)
			if err != nil {
				log.Warn().Err(err).Int("round", round).Msg("tool dispatch failed, degrading")
				if roundText != "" {
					ans.Text = roundText
				} else {
					ans.Text = degradedAnswer
				}
				state = stateTerminal
				continue
			}
			pendingResults = results
			state = stateRoundEnd

		case stateRoundEnd:
			messages = append(messages, resp.ToParam())
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			if round < o.maxRounds {
				round++
				state = stateRoundStart
			} else {
				state = stateForcedFinal
			}

		case stateForcedFinal:
			// Round budget exhausted while the model still wanted a
			// tool: one last call with tools omitted guarantees a
			// textual answer.
			final, err := o.llm.New(ctx, o.messageParams(messages, base, nil))
			if err != nil {
				return Answer{}, fmt.Errorf("final model call failed: %w", err)
			}
			text, _ := parseResponse(final)
			ans.Text = text
			state = stateTerminal

		case stateTerminal:
			return ans, nil
		}
	}

	return ans, nil
}

func (o *Orchestrator) messageParams(messages []anthropic.MessageParam, system string, toolParams []anthropic.ToolUnionUnionParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(o.model)),
		MaxTokens:   anthropic.F(o.maxTokens),
		Temperature: anthropic.F(0.0),
		Messages:    anthropic.F(messages),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		}),
	}
	if len(toolParams) > 0 {
		params.Tools = anthropic.F(toolParams)
	}
	return params
}

// dispatch executes every tool call of one round in the order the
// model emitted them. Any tool error fails the whole round's dispatch;
// the caller degrades instead of retrying. Sources of the last
// execution that produced any are kept on the answer.
func (o *Orchestrator) dispatch(ctx context.Context, registry *tools.Registry, calls []toolCall, ans *Answer) ([]anthropic.ContentBlockParamUnion, error) {
	var results []anthropic.ContentBlockParamUnion
	for _, tc := range calls {
		res, err := registry.Execute(ctx, tc.Name, tc.Input)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tc.Name, err)
		}
		if len(res.Sources) > 0 {
			ans.Sources = res.Sources
		}
		results = append(results, anthropic.NewToolResultBlock(tc.ID, res.Content, false))
	}
	return results, nil
}

func parseResponse(resp *anthropic.Message) (string, []toolCall) {
	var text string
	var calls []toolCall

	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(b.Input, &input); err != nil {
				log.Warn().Err(err).Str("tool", b.Name).Msg("failed to parse tool input")
				input = map[string]interface{}{}
			}
			calls = append(calls, toolCall{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return text, calls
}

func toolUnionParams(defs []tools.Definition) []anthropic.ToolUnionUnionParam {
	if len(defs) == 0 {
		return nil
	}
	params := make([]anthropic.ToolUnionUnionParam, len(defs))
	for i, d := range defs {
		params[i] = anthropic.ToolParam{
			Name:        anthropic.String(d.Name),
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.F[interface{}](d.InputSchema),
		}
	}
	return params
}
