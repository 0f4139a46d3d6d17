package agent

import (
	"encoding/json"
	"fmt"

	"github.com/cardroom/pokerbench/internal/llm"
)

// memoryTools returns the function-calling schemas for the memory queries.
// These are the only tools exposed to models.
func memoryTools() []llm.Tool {
	return []llm.Tool{
		llm.NewTool("recall_opponent_actions",
			"Query past actions by opponents. Use this to recall betting patterns, raises, folds, and showdown information for specific opponents.",
			`{
				"type": "object",
				"properties": {
					"opponent_seat": {"type": "integer", "description": "Filter by opponent's seat number (1-8)"},
					"opponent_name": {"type": "string", "description": "Filter by opponent's name"},
					"street": {"type": "string", "enum": ["preflop", "flop", "turn", "river"], "description": "Filter by betting street"},
					"action_type": {"type": "string", "enum": ["fold", "check", "call", "bet", "raise"], "description": "Filter by action type"},
					"limit": {"type": "integer", "description": "Maximum number of actions to return (default: 20)", "default": 20}
				},
				"required": []
			}`),
		llm.NewTool("recall_my_hands",
			"Retrieve your own hand history and outcomes. Use this to review your past plays, results, and patterns.",
			`{
				"type": "object",
				"properties": {
					"result": {"type": "string", "enum": ["won", "lost", "folded", "split"], "description": "Filter by hand result"},
					"position": {"type": "string", "description": "Filter by position (BTN, SB, BB, UTG, MP1, CO)"},
					"limit": {"type": "integer", "description": "Maximum number of hands to return (default: 10)", "default": 10}
				},
				"required": []
			}`),
		llm.NewTool("search_observations",
			"Free-text search across your observation history. Use this to find hands involving specific cards, actions, or outcomes.",
			`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query (e.g. 'AA', 'all-in', 'river raise')"},
					"limit": {"type": "integer", "description": "Maximum number of results to return (default: 10)", "default": 10}
				},
				"required": ["query"]
			}`),
	}
}

// executeTool dispatches a model tool call against a seat's memory and
// returns the JSON-encoded result. Unknown tools and malformed arguments
// are errors; the driver reports them back to the model.
func executeTool(mem *Memory, name string, arguments string) (string, error) {
	switch name {
	case "recall_opponent_actions":
		var args struct {
			OpponentSeat int    `json:"opponent_seat"`
			OpponentName string `json:"opponent_name"`
			Street       string `json:"street"`
			ActionType   string `json:"action_type"`
			Limit        int    `json:"limit"`
		}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return encodeResult(mem.OpponentActions(OpponentFilter{
			Seat:   args.OpponentSeat,
			Name:   args.OpponentName,
			Street: args.Street,
			Action: args.ActionType,
			Limit:  args.Limit,
		}))

	case "recall_my_hands":
		var args struct {
			Result   string `json:"result"`
			Position string `json:"position"`
			Limit    int    `json:"limit"`
		}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return encodeResult(mem.MyHands(args.Result, args.Position, args.Limit))

	case "search_observations":
		var args struct {
			Query string `json:"query"`
			Limit int    `json:"limit"`
		}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return encodeResult(mem.Search(args.Query, args.Limit))

	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

func decodeArgs(arguments string, v any) error {
	if arguments == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func encodeResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
