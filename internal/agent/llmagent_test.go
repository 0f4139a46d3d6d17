package agent

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/pokerbench/internal/llm"
)

// fakeCaller replays scripted responses and records every request.
type fakeCaller struct {
	responses []*llm.Response
	requests  []llm.Request
}

func (f *fakeCaller) Call(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return &llm.Response{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textResponse(content string) *llm.Response {
	return &llm.Response{Content: content, Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}}
}

func facingBetObservation() Observation {
	return Observation{
		HandNumber: 3,
		Street:     "preflop",
		Seat:       2,
		Position:   "SB",
		HoleCards:  []string{"As", "Kd"},
		Stack:      195,
		Pot:        15,
		ToCall:     5,
		MinRaiseTo: 20,
		MaxRaiseTo: 200,
		SmallBlind: 5,
		BigBlind:   10,
		ButtonSeat: 1,
		LegalActions: []LegalActionView{
			{Action: "fold"},
		},
	}
}

func newTestAgent(t *testing.T, transport Caller, opts Options) *LLMAgent {
	t.Helper()
	mem := NewMemory("hero", 2)
	return NewLLMAgent("hero", "test/model", 2, mem, transport, log.New(io.Discard), quartz.NewMock(t), opts)
}

func checkableObservation() Observation {
	obs := facingBetObservation()
	obs.ToCall = 0
	obs.LegalActions = []LegalActionView{
		{Action: "check"},
		{Action: "bet", Min: 10, Max: 200},
	}
	return obs
}

func unopenedObservation() Observation {
	obs := facingBetObservation()
	obs.LegalActions = []LegalActionView{
		{Action: "fold"},
		{Action: "call", Min: 5, Max: 5},
		{Action: "raise", Min: 20, Max: 200},
	}
	return obs
}

func TestDecideParsesPlainJSON(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		textResponse(`{"action": "call", "reasoning": "pot odds"}`),
	}}
	a := newTestAgent(t, caller, Options{})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "call", action.Kind)
	assert.Equal(t, "pot odds", action.Reasoning)
	assert.Equal(t, 0, action.Retries)
	assert.False(t, action.Forced)
}

func TestDecideParsesFencedJSON(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		textResponse("Here is my decision:\n```json\n{\"action\": \"raise\", \"raise_to\": 30, \"reasoning\": \"value\"}\n```"),
	}}
	a := newTestAgent(t, caller, Options{})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "raise", action.Kind)
	assert.Equal(t, 30, action.RaiseTo)
}

func TestDecideParsesEmbeddedJSON(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		textResponse(`I think the board is dry so {"action": "fold", "reasoning": "weak"} is right.`),
	}}
	a := newTestAgent(t, caller, Options{})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "fold", action.Kind)
}

func TestDecideFallsBackToReasoningChannel(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		{Reasoning: `{"action": "call", "reasoning": "from reasoning channel"}`},
	}}
	a := newTestAgent(t, caller, Options{})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "call", action.Kind)
}

func TestDecideRunsToolLoop(t *testing.T) {
	t.Parallel()

	mem := NewMemory("hero", 2)
	mem.StartHand(1, nil, "SB")
	mem.RecordAction("preflop", 1, "villain", "raise", 40)
	mem.EndHand("folded", 0, 50, 160)

	caller := &fakeCaller{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: llm.FunctionCall{
				Name:      "recall_opponent_actions",
				Arguments: `{"opponent_seat": 1}`,
			},
		}}, Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}},
		textResponse(`{"action": "fold", "reasoning": "villain only raises strong"}`),
	}}
	a := NewLLMAgent("hero", "test/model", 2, mem, caller, log.New(io.Discard), quartz.NewMock(t), Options{})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "fold", action.Kind)

	// Second request carries the tool result back to the model.
	require.Len(t, caller.requests, 2)
	msgs := caller.requests[1].Messages
	last := msgs[len(msgs)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	var report OpponentReport
	require.NoError(t, json.Unmarshal([]byte(last.Content), &report))
	assert.Equal(t, 1, report.TotalFound)

	traces := a.Traces()
	require.Len(t, traces, 1)
	require.Len(t, traces[0].ToolCalls, 1)
	assert.Equal(t, "recall_opponent_actions", traces[0].ToolCalls[0].Name)
	assert.Equal(t, 240, traces[0].Usage.TotalTokens, "usage summed across turns")
}

func TestDecideRetriesOnIllegalAction(t *testing.T) {
	t.Parallel()

	obs := checkableObservation()
	caller := &fakeCaller{responses: []*llm.Response{
		textResponse(`{"action": "call", "reasoning": "oops, nothing to call"}`),
		textResponse(`{"action": "check", "reasoning": "fine"}`),
	}}
	a := newTestAgent(t, caller, Options{})

	action, err := a.Decide(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, "check", action.Kind)
	assert.Equal(t, 1, action.Retries)
	assert.False(t, action.Forced)

	// The retry request includes the assistant text and a corrective nudge.
	require.Len(t, caller.requests, 2)
	msgs := caller.requests[1].Messages
	require.GreaterOrEqual(t, len(msgs), 4)
	assert.Equal(t, llm.RoleAssistant, msgs[len(msgs)-2].Role)
	assert.Equal(t, llm.RoleUser, msgs[len(msgs)-1].Role)
	assert.Contains(t, msgs[len(msgs)-1].Content, "not legal")
}

func TestDecideRetriesOnRaiseBounds(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		textResponse(`{"action": "raise", "raise_to": 15, "reasoning": "small"}`),
		textResponse(`{"action": "raise", "reasoning": "forgot the amount"}`),
		textResponse(`{"action": "raise", "raise_to": 40, "reasoning": "proper"}`),
	}}
	a := newTestAgent(t, caller, Options{})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "raise", action.Kind)
	assert.Equal(t, 40, action.RaiseTo)
	assert.Equal(t, 2, action.Retries)
}

func TestDecideForcesFoldAfterRetryCap(t *testing.T) {
	t.Parallel()

	// Facing a bet with nonsense responses throughout: forced fold.
	caller := &fakeCaller{responses: []*llm.Response{
		textResponse("I will definitely win this hand."),
		textResponse("Let me think some more."),
		textResponse(`{"action": "allin"}`),
		textResponse("still nothing parseable"),
	}}
	a := newTestAgent(t, caller, Options{MaxRetries: 3})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.Equal(t, "fold", action.Kind)
	assert.True(t, action.Forced)
	assert.Equal(t, 3, action.Retries)
	assert.Len(t, caller.requests, 4, "initial attempt plus three retries")

	traces := a.Traces()
	require.Len(t, traces, 1)
	assert.True(t, traces[0].Forced)
	assert.NotEmpty(t, traces[0].Error)
}

func TestDecideForcesCheckWhenLegal(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		textResponse("nope"), textResponse("nope"), textResponse("nope"), textResponse("nope"),
	}}
	a := newTestAgent(t, caller, Options{MaxRetries: 3})

	action, err := a.Decide(context.Background(), checkableObservation())
	require.NoError(t, err)
	assert.Equal(t, "check", action.Kind)
	assert.True(t, action.Forced)
}

func TestDecideEchoesReasoningBlocksWhenPreserved(t *testing.T) {
	t.Parallel()

	blocks := json.RawMessage(`[{"type": "reasoning.encrypted", "data": "opaque"}]`)
	caller := &fakeCaller{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call_1", Type: "function",
			Function: llm.FunctionCall{Name: "recall_my_hands", Arguments: `{}`},
		}}, ReasoningDetails: blocks},
		textResponse(`{"action": "call", "reasoning": "ok"}`),
	}}
	a := newTestAgent(t, caller, Options{PreserveReasoningBlocks: true})

	_, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)

	require.Len(t, caller.requests, 2)
	var assistant *llm.Message
	for i := range caller.requests[1].Messages {
		if caller.requests[1].Messages[i].Role == llm.RoleAssistant {
			assistant = &caller.requests[1].Messages[i]
		}
	}
	require.NotNil(t, assistant)
	assert.JSONEq(t, string(blocks), string(assistant.ReasoningDetails))
}

func TestDecideDropsReasoningBlocksByDefault(t *testing.T) {
	t.Parallel()

	blocks := json.RawMessage(`[{"type": "reasoning.encrypted", "data": "opaque"}]`)
	caller := &fakeCaller{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID: "call_1", Type: "function",
			Function: llm.FunctionCall{Name: "recall_my_hands", Arguments: `{}`},
		}}, ReasoningDetails: blocks},
		textResponse(`{"action": "call", "reasoning": "ok"}`),
	}}
	a := newTestAgent(t, caller, Options{})

	_, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)

	require.Len(t, caller.requests, 2)
	for _, msg := range caller.requests[1].Messages {
		if msg.Role == llm.RoleAssistant {
			assert.Empty(t, msg.ReasoningDetails)
		}
	}
}

func TestDecideToolLoopBudget(t *testing.T) {
	t.Parallel()

	// A model that only ever calls tools runs out of turns; the empty
	// terminal content is a parse failure and eventually forces the safe
	// action.
	toolResp := func() *llm.Response {
		return &llm.Response{ToolCalls: []llm.ToolCall{{
			ID: "c", Type: "function",
			Function: llm.FunctionCall{Name: "recall_my_hands", Arguments: `{}`},
		}}}
	}
	var responses []*llm.Response
	for i := 0; i < 2*4; i++ {
		responses = append(responses, toolResp())
	}
	caller := &fakeCaller{responses: responses}
	a := newTestAgent(t, caller, Options{MaxRetries: 1, MaxTurns: 2})

	action, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)
	assert.True(t, action.Forced)
	assert.Equal(t, "fold", action.Kind)
}

func TestDrainTraces(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: []*llm.Response{
		textResponse(`{"action": "fold", "reasoning": "done"}`),
	}}
	a := newTestAgent(t, caller, Options{})

	_, err := a.Decide(context.Background(), unopenedObservation())
	require.NoError(t, err)

	traces := a.DrainTraces()
	assert.Len(t, traces, 1)
	assert.Empty(t, a.Traces())
}
