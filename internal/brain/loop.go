package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/otel"
)

// DefaultMaxRounds is the tool round-trip ceiling when Loop.MaxRounds is unset.
const DefaultMaxRounds = 2

// State is where a Loop run is.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Loop sends a request, runs the tools the model asks for, and feeds the
// results back until the model stops asking or MaxRounds round trips are used.
type Loop struct {
	Provider  Provider
	Tools     []Tool
	MaxRounds int
	Events    *otel.Logger
}

// ToolCall records one executed tool call.
type ToolCall struct {
	Round   int
	Name    string
	Input   string
	IsError bool
}

// Result is the outcome of a Run.
type Result struct {
	Text       string
	Rounds     int
	HitCeiling bool
	Model      string
	ToolCalls  []ToolCall
}

func (l *Loop) maxRounds() int {
	if l.MaxRounds > 0 {
		return l.MaxRounds
	}
	return DefaultMaxRounds
}

func (l *Loop) tool(name string) Tool {
	for _, t := range l.Tools {
		if t.Spec().Name == name {
			return t
		}
	}
	return nil
}

// Run drives req to completion. Tool specs from l.Tools are appended to
// req.Tools. Hitting the ceiling is not an error; the best text so far is
// returned.
func (l *Loop) Run(ctx context.Context, req Request) (Result, error) {
	if l.Provider == nil || !l.Provider.Available() {
		return Result{}, ErrProviderUnavailable
	}

	for _, t := range l.Tools {
		req.Tools = append(req.Tools, t.Spec())
	}
	ceiling := l.maxRounds()
	start := time.Now()
	l.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindGenStart, Comp: "brain", Model: l.Provider.Name(), Count: len(req.Tools)})

	var (
		res      Result
		reply    Reply
		lastText string
		state    = StateAwaitingModel
	)
	for state != StateDone {
		switch state {
		case StateAwaitingModel:
			var err error
			reply, err = l.Provider.Complete(ctx, req)
			if err != nil {
				l.Events.Error(otel.KindError, "brain", err)
				return res, fmt.Errorf("generation round %d: %w", res.Rounds, err)
			}
			if reply.Model != "" {
				res.Model = reply.Model
			}
			if t := reply.Text(); t != "" {
				lastText = t
			}
			req.Conversation = req.Conversation.Append(Turn{Role: RoleAssistant, Blocks: reply.Blocks})

			switch {
			case reply.StopReason != StopToolUse:
				state = StateDone
			case res.Rounds < ceiling:
				state = StateExecutingTools
			default:
				res.HitCeiling = true
				logging.Warn("generation hit tool round ceiling", "rounds", res.Rounds, "ceiling", ceiling)
				l.Events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindGenCeiling, Comp: "brain", Round: res.Rounds, Model: res.Model})
				state = StateDone
			}

		case StateExecutingTools:
			res.Rounds++
			uses := reply.ToolUses()
			if len(uses) == 0 {
				state = StateDone
				break
			}
			results := make([]Block, 0, len(uses))
			for _, use := range uses {
				results = append(results, l.execute(ctx, res.Rounds, use, &res))
			}
			req.Conversation = req.Conversation.Append(Turn{Role: RoleUser, Blocks: results})
			state = StateAwaitingModel
		}
	}

	res.Text = lastText
	l.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindGenComplete, Comp: "brain", Round: res.Rounds, Model: res.Model, Dur: time.Since(start), Count: len(res.ToolCalls)})
	logging.Info("generation complete", "model", res.Model, "rounds", res.Rounds, "ceiling_hit", res.HitCeiling)
	return res, nil
}

func (l *Loop) execute(ctx context.Context, round int, use Block, res *Result) Block {
	call := ToolCall{Round: round, Name: use.Name, Input: string(use.Input)}
	var (
		content string
		err     error
	)
	if t := l.tool(use.Name); t != nil {
		content, err = t.Call(ctx, use.Input)
	} else {
		err = fmt.Errorf("unknown tool %q", use.Name)
	}
	if err != nil {
		call.IsError = true
		content = "Error: " + err.Error()
		logging.Warn("tool call failed", "tool", use.Name, "error", err)
	}
	res.ToolCalls = append(res.ToolCalls, call)

	outcome := "ok"
	if call.IsError {
		outcome = "error"
	}
	l.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindGenTool, Comp: "brain", Round: round, Tool: use.Name, Outcome: outcome})
	return ToolResultBlock(use.ID, use.Name, content, call.IsError)
}
