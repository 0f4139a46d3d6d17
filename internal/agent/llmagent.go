package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/pokerbench/internal/game"
	"github.com/cardroom/pokerbench/internal/llm"
)

const systemPrompt = `You are playing No-Limit Texas Hold'em poker in a tournament. Your goal is to win chips and ultimately win the tournament.

You have access to memory tools to recall information about past hands and opponent behavior. Use these tools strategically to inform your decisions.

When you decide on an action, respond with a JSON object in this exact format:
{
  "action": "fold" | "check" | "call" | "bet" | "raise",
  "raise_to": <number if betting or raising, otherwise null>,
  "reasoning": "<brief explanation of your decision>"
}

Important rules:
- Only choose from the legal actions listed in the game state
- If betting or raising, "raise_to" is the TOTAL amount you are committing this street, not the additional amount
- If you cannot afford the minimum raise, you can move all-in for less
- Always provide reasoning for your decision

Think step by step about:
1. Your hand strength and potential
2. Your position and stack size
3. Opponent tendencies (use tools to recall)
4. Pot odds and implied odds
5. Tournament considerations (stack preservation vs. accumulation)`

// AgentAction is a seat's chosen action in agent vocabulary. Kind is one of
// fold, check, call, bet or raise; RaiseTo is the total committed this
// street for bet/raise. Forced marks the safe action substituted after the
// retry cap.
type AgentAction struct {
	Kind       string `json:"action"`
	RaiseTo    int    `json:"raise_to,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
	Forced     bool   `json:"forced,omitempty"`
	Retries    int    `json:"retries,omitempty"`
	ThinkingMs int64  `json:"thinking_ms,omitempty"`
}

// GameKind maps the agent action name onto the engine's action kind.
func (a AgentAction) GameKind() game.ActionKind {
	switch a.Kind {
	case "check":
		return game.Check
	case "call":
		return game.Call
	case "bet":
		return game.Bet
	case "raise":
		return game.Raise
	default:
		return game.Fold
	}
}

// Caller is the model transport the driver speaks through.
type Caller interface {
	Call(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Options tune the decision protocol for one agent.
type Options struct {
	// MaxRetries bounds corrective retries after parse or validation
	// failures before the safe action is forced.
	MaxRetries int
	// MaxTurns bounds the tool loop within one attempt.
	MaxTurns    int
	Temperature *float64
	Reasoning   *llm.ReasoningOptions
	Provider    *llm.ProviderOptions
	// PreserveReasoningBlocks echoes opaque provider reasoning blocks back
	// on assistant turns. Off by default; some providers reject stale
	// blocks when the conversation is rewritten between decisions.
	PreserveReasoningBlocks bool
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.MaxTurns <= 0 {
		o.MaxTurns = 5
	}
	return o
}

// ToolCallTrace is one executed tool call in a decision trace.
type ToolCallTrace struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ResponseTrace is one raw model response in a decision trace.
type ResponseTrace struct {
	Content   string    `json:"content"`
	Reasoning string    `json:"reasoning,omitempty"`
	ToolCalls int       `json:"tool_calls,omitempty"`
	Usage     llm.Usage `json:"usage"`
}

// DecisionTrace is the full record of one decision point, kept for the
// agent logger.
type DecisionTrace struct {
	Seat        int             `json:"seat"`
	Agent       string          `json:"agent"`
	Model       string          `json:"model"`
	Observation Observation     `json:"observation"`
	Messages    []llm.Message   `json:"messages"`
	ToolCalls   []ToolCallTrace `json:"tool_calls,omitempty"`
	Responses   []ResponseTrace `json:"llm_responses"`
	FinalAction AgentAction     `json:"final_action"`
	Retries     int             `json:"retries"`
	Forced      bool            `json:"forced,omitempty"`
	ElapsedMs   int64           `json:"elapsed_ms"`
	Error       string          `json:"error,omitempty"`
	Usage       llm.Usage       `json:"token_usage"`
}

// LLMAgent drives one seat through a remote model. Each decision runs the
// multi-turn tool loop, parses and validates the returned decision JSON,
// and falls back to the safe action once the retry cap is hit. Called
// synchronously by the runner; not safe for concurrent use.
type LLMAgent struct {
	name      string
	model     string
	seat      int
	memory    *Memory
	transport Caller
	logger    *log.Logger
	clock     quartz.Clock
	opts      Options

	traces []DecisionTrace
}

// NewLLMAgent builds a driver for one seat. A nil clock uses the real one.
func NewLLMAgent(name, model string, seat int, memory *Memory, transport Caller, logger *log.Logger, clock quartz.Clock, opts Options) *LLMAgent {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &LLMAgent{
		name:      name,
		model:     model,
		seat:      seat,
		memory:    memory,
		transport: transport,
		logger:    logger.WithPrefix("agent").With("name", name, "seat", seat),
		clock:     clock,
		opts:      opts.withDefaults(),
	}
}

// Name returns the agent's display name.
func (a *LLMAgent) Name() string { return a.name }

// Model returns the model identifier the agent plays with.
func (a *LLMAgent) Model() string { return a.model }

// Decide runs the decision protocol for one observation.
func (a *LLMAgent) Decide(ctx context.Context, obs Observation) (AgentAction, error) {
	start := a.clock.Now()
	trace := DecisionTrace{
		Seat:        a.seat,
		Agent:       a.name,
		Model:       a.model,
		Observation: obs,
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: obs.Render()},
	}
	tools := memoryTools()

	retries := 0
	for {
		resp, err := a.converse(ctx, &messages, tools, &trace)

		var action AgentAction
		if err == nil {
			text := resp.Content
			if strings.TrimSpace(text) == "" {
				// Some providers put the final answer on the reasoning
				// channel and leave content empty.
				text = resp.Reasoning
			}
			action, err = parseDecision(text, obs)
			if err != nil {
				messages = append(messages, llm.Message{
					Role:    llm.RoleUser,
					Content: fmt.Sprintf("Invalid response: %v. Respond with a JSON object containing \"action\", \"raise_to\" (if betting or raising), and \"reasoning\", choosing only from the legal actions.", err),
				})
			}
		} else {
			a.logger.Warn("model call failed", "error", err)
		}

		if err == nil {
			action.Retries = retries
			action.ThinkingMs = a.clock.Since(start).Milliseconds()
			trace.FinalAction = action
			trace.Retries = retries
			trace.ElapsedMs = action.ThinkingMs
			a.traces = append(a.traces, trace)
			return action, nil
		}

		retries++
		trace.Retries = retries
		if retries > a.opts.MaxRetries {
			forced := a.forcedAction(obs)
			forced.Retries = a.opts.MaxRetries
			forced.ThinkingMs = a.clock.Since(start).Milliseconds()
			trace.FinalAction = forced
			trace.Forced = true
			trace.ElapsedMs = forced.ThinkingMs
			trace.Error = fmt.Sprintf("retry cap reached: %v", err)
			a.traces = append(a.traces, trace)
			a.logger.Warn("forcing safe action", "action", forced.Kind, "error", err)
			return forced, nil
		}
	}
}

// converse runs one bounded tool loop and returns the terminal response.
// Exhausting the turn budget returns the last response; its content then
// fails decision parsing and counts as a retry.
func (a *LLMAgent) converse(ctx context.Context, messages *[]llm.Message, tools []llm.Tool, trace *DecisionTrace) (*llm.Response, error) {
	var resp *llm.Response
	for turn := 0; turn < a.opts.MaxTurns; turn++ {
		var err error
		resp, err = a.transport.Call(ctx, llm.Request{
			Model:       a.model,
			Messages:    *messages,
			Tools:       tools,
			Temperature: a.opts.Temperature,
			Reasoning:   a.opts.Reasoning,
			Provider:    a.opts.Provider,
		})
		if err != nil {
			return nil, err
		}

		trace.Responses = append(trace.Responses, ResponseTrace{
			Content:   resp.Content,
			Reasoning: resp.Reasoning,
			ToolCalls: len(resp.ToolCalls),
			Usage:     resp.Usage,
		})
		trace.Usage.PromptTokens += resp.Usage.PromptTokens
		trace.Usage.CompletionTokens += resp.Usage.CompletionTokens
		trace.Usage.TotalTokens += resp.Usage.TotalTokens

		assistant := resp.AssistantMessage()
		if !a.opts.PreserveReasoningBlocks {
			assistant.ReasoningDetails = nil
		}
		*messages = append(*messages, assistant)
		if len(resp.ToolCalls) == 0 {
			return resp, nil
		}

		for _, tc := range resp.ToolCalls {
			result, err := executeTool(a.memory, tc.Function.Name, tc.Function.Arguments)
			tct := ToolCallTrace{Name: tc.Function.Name, Arguments: tc.Function.Arguments, Result: result}
			content := result
			if err != nil {
				tct.Error = err.Error()
				content = fmt.Sprintf(`{"error": %q}`, err.Error())
			}
			trace.ToolCalls = append(trace.ToolCalls, tct)
			*messages = append(*messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
				Content:    content,
			})
		}
	}
	return resp, nil
}

// forcedAction is the safe substitute once retries are exhausted: check
// when legal, otherwise fold.
func (a *LLMAgent) forcedAction(obs Observation) AgentAction {
	kind := "fold"
	if _, ok := obs.Legal("check"); ok {
		kind = "check"
	}
	return AgentAction{Kind: kind, Reasoning: "forced: no valid decision within retry limit", Forced: true}
}

// Traces returns all decision traces recorded so far.
func (a *LLMAgent) Traces() []DecisionTrace {
	return append([]DecisionTrace(nil), a.traces...)
}

// DrainTraces returns the recorded traces and clears the buffer. The
// runner drains once per hand for the agent logger.
func (a *LLMAgent) DrainTraces() []DecisionTrace {
	t := a.traces
	a.traces = nil
	return t
}

type decisionJSON struct {
	Action    string   `json:"action"`
	RaiseTo   *float64 `json:"raise_to"`
	Reasoning string   `json:"reasoning"`
}

// parseDecision extracts and validates the decision object from model
// output. Accepts bare JSON, JSON inside a fenced code block, and JSON
// embedded in prose.
func parseDecision(text string, obs Observation) (AgentAction, error) {
	d, ok := extractDecision(text)
	if !ok {
		return AgentAction{}, fmt.Errorf("no decision JSON found in response")
	}
	return validateDecision(d, obs)
}

// extractDecision finds the first JSON object with an "action" field.
// Scanning every brace position covers bare, fenced and embedded JSON in
// one pass.
func extractDecision(text string) (decisionJSON, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		var d decisionJSON
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&d); err == nil && d.Action != "" {
			return d, true
		}
	}
	return decisionJSON{}, false
}

func validateDecision(d decisionJSON, obs Observation) (AgentAction, error) {
	kind := strings.ToLower(strings.TrimSpace(d.Action))
	la, ok := obs.Legal(kind)
	if !ok {
		var kinds []string
		for _, l := range obs.LegalActions {
			kinds = append(kinds, l.Action)
		}
		return AgentAction{}, fmt.Errorf("action %q is not legal here (legal: %s)", kind, strings.Join(kinds, ", "))
	}

	action := AgentAction{Kind: kind, Reasoning: d.Reasoning}
	if kind == "bet" || kind == "raise" {
		if d.RaiseTo == nil {
			return AgentAction{}, fmt.Errorf("%s requires a raise_to amount", kind)
		}
		to := int(*d.RaiseTo)
		if to > la.Max {
			return AgentAction{}, fmt.Errorf("%s to %d exceeds maximum %d", kind, to, la.Max)
		}
		if to < la.Min {
			return AgentAction{}, fmt.Errorf("%s to %d is below minimum %d", kind, to, la.Min)
		}
		action.RaiseTo = to
	}
	return action, nil
}
