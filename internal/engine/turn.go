// Package engine drives one conversation turn: context assembly, the
// two-round tool loop and safe edit application.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/stellarlink/repochat/internal/costcontrol"
	"github.com/stellarlink/repochat/internal/loader"
	"github.com/stellarlink/repochat/internal/provider"
	"github.com/stellarlink/repochat/internal/relevance"
	"github.com/stellarlink/repochat/internal/repo"
)

const basePrompt = `You are a software engineering assistant with read and write access to a GitHub repository.

You are given the repository tree and a selection of relevant files. Use the tools to read additional files, search the repository, create files, and make precise edits. When using str_replace, the old string must match the file content exactly once; include surrounding context to disambiguate. Keep edits minimal.`

// TurnResult is the aggregated outcome of one turn.
type TurnResult struct {
	Text    string         `json:"text"`
	Changes []FileChange   `json:"changes"`
	Usage   provider.Usage `json:"usage"`
}

// Engine owns the per-turn tool loop. The accessor and conversation
// capabilities are injected; everything else is derived from them.
type Engine struct {
	accessor repo.Accessor
	conv     provider.Conversation
	ledger   *costcontrol.Ledger
	loader   *loader.Loader
	selector *relevance.Selector
	editor   *Editor
	branch   string
	maxDepth int
}

// New creates an engine operating on the given branch. maxDepth bounds the
// import-graph expansion during context loading.
func New(accessor repo.Accessor, conv provider.Conversation, ledger *costcontrol.Ledger, branch string, maxDepth int) *Engine {
	return &Engine{
		accessor: accessor,
		conv:     conv,
		ledger:   ledger,
		loader:   loader.New(accessor, branch),
		selector: relevance.New(accessor),
		editor:   NewEditor(accessor, branch),
		branch:   branch,
		maxDepth: maxDepth,
	}
}

// RunTurn executes one complete request/response cycle: seed selection,
// context loading, up to two model rounds with sequential tool dispatch in
// between. Only total failure of the conversation capability is fatal; every
// tool failure is folded into the turn as a failed result.
func (e *Engine) RunTurn(ctx context.Context, requestText string, history []provider.Message, seedOverride []string) (*TurnResult, error) {
	seeds := seedOverride
	if len(seeds) == 0 {
		seeds = e.selector.SelectSeeds(ctx, requestText)
	}

	loaded := e.loader.Load(ctx, seeds, e.maxDepth)
	log.Printf("[Engine] Context assembled: %d seed(s), %d file(s)", len(seeds), len(loaded.Files))

	system := buildSystemPrompt(loaded)

	messages := make([]provider.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, provider.Message{Role: "user", Content: requestText})

	var (
		text    string
		usage   provider.Usage
		calls   []provider.ToolCall
		results []ToolResult
		changes []FileChange
	)

	for state := nextState(stateInitial, 0); state != stateDone; {
		switch state {
		case stateRoundOne:
			resp, err := e.conv.Send(ctx, &provider.Request{
				System:   system,
				Messages: messages,
				Tools:    ToolDefinitions(),
			})
			if err != nil {
				return nil, fmt.Errorf("model round failed: %w", err)
			}
			e.ledger.Record(resp.Model, resp.Usage)
			usage = usage.Add(resp.Usage)
			text = resp.Text
			calls = resp.ToolCalls
			state = nextState(stateRoundOne, len(calls))

		case stateToolExecution:
			results, changes = e.executeTools(ctx, calls)
			state = nextState(stateToolExecution, 0)

		case stateRoundTwo:
			assistantText := text
			if assistantText == "" {
				assistantText = "(requested tool calls)"
			}

			followup := make([]provider.Message, 0, len(messages)+2)
			followup = append(followup, messages...)
			followup = append(followup,
				provider.Message{Role: "assistant", Content: assistantText},
				provider.Message{Role: "user", Content: summarizeResults(calls, results)},
			)

			resp, err := e.conv.Send(ctx, &provider.Request{
				System:   system,
				Messages: followup,
			})
			if err != nil {
				return nil, fmt.Errorf("follow-up round failed: %w", err)
			}
			e.ledger.Record(resp.Model, resp.Usage)
			usage = usage.Add(resp.Usage)
			text = resp.Text
			state = nextState(stateRoundTwo, 0)
		}
	}

	return &TurnResult{
		Text:    text,
		Changes: changes,
		Usage:   usage,
	}, nil
}

// executeTools dispatches the calls strictly in order. Later calls may
// depend on earlier calls' side effects, so each one fully completes before
// the next begins. Once cancellation is observed no further calls are
// dispatched; the remaining calls report failure.
func (e *Engine) executeTools(ctx context.Context, calls []provider.ToolCall) ([]ToolResult, []FileChange) {
	results := make([]ToolResult, 0, len(calls))
	var changes []FileChange

	for _, call := range calls {
		if ctx.Err() != nil {
			results = append(results, ToolResult{Success: false, Error: "turn canceled before dispatch"})
			continue
		}

		result, change := e.dispatch(ctx, call)
		results = append(results, result)
		if change != nil {
			changes = append(changes, *change)
		}

		if result.Success {
			log.Printf("[Engine] Tool %s succeeded", call.Name)
		} else {
			log.Printf("[Engine] Tool %s failed: %s", call.Name, result.Error)
		}
	}

	return results, changes
}

// dispatch routes one tool call to the matching repository operation. An
// unknown tool name produces a failed result, never a fault.
func (e *Engine) dispatch(ctx context.Context, call provider.ToolCall) (ToolResult, *FileChange) {
	switch call.Name {
	case ToolReadFile:
		var in ReadFileInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return failure("invalid read_file input: %v", err), nil
		}
		rec, err := e.accessor.GetFile(ctx, in.Path, e.branch)
		if err != nil {
			return failure("read %s: %v", in.Path, err), nil
		}
		return ToolResult{Success: true, Result: rec.Content}, nil

	case ToolStrReplace:
		var in StrReplaceInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return failure("invalid str_replace input: %v", err), nil
		}
		if err := e.editor.Apply(ctx, in.Path, in.OldStr, in.NewStr); err != nil {
			return failure("edit %s: %v", in.Path, err), nil
		}
		return ToolResult{Success: true, Result: "edited " + in.Path}, &FileChange{
			Path:   in.Path,
			Action: "edit",
			Diff:   fmt.Sprintf("- %s\n+ %s", in.OldStr, in.NewStr),
		}

	case ToolCreateFile:
		var in CreateFileInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return failure("invalid create_file input: %v", err), nil
		}
		message := fmt.Sprintf("repochat: create %s", in.Path)
		if err := e.accessor.WriteFile(ctx, in.Path, in.Content, message, e.branch, ""); err != nil {
			return failure("create %s: %v", in.Path, err), nil
		}
		return ToolResult{Success: true, Result: "created " + in.Path}, &FileChange{
			Path:   in.Path,
			Action: "create",
			Diff:   in.Content,
		}

	case ToolSearchFiles:
		var in SearchFilesInput
		if err := json.Unmarshal(call.Input, &in); err != nil {
			return failure("invalid search_files input: %v", err), nil
		}
		paths, err := e.accessor.Search(ctx, in.Query)
		if err != nil {
			return failure("search %q: %v", in.Query, err), nil
		}
		return ToolResult{Success: true, Result: strings.Join(paths, "\n")}, nil

	default:
		return failure("unknown tool: %s", call.Name), nil
	}
}

func failure(format string, args ...any) ToolResult {
	return ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// summarizeResults synthesizes the human-readable per-tool outcome summary
// sent to the model in the follow-up round.
func summarizeResults(calls []provider.ToolCall, results []ToolResult) string {
	var b strings.Builder
	b.WriteString("Tool execution results:\n")

	for i, call := range calls {
		r := results[i]
		if r.Success {
			fmt.Fprintf(&b, "- %s: success\n", describeCall(call))
		} else {
			fmt.Fprintf(&b, "- %s: failed: %s\n", describeCall(call), r.Error)
		}
	}

	b.WriteString("\nSummarize the outcome of these operations for the user.")
	return b.String()
}

// describeCall renders a call as name(primary-argument) for the summary.
func describeCall(call provider.ToolCall) string {
	var in map[string]any
	if err := json.Unmarshal(call.Input, &in); err == nil {
		for _, key := range []string{"path", "query"} {
			if v, ok := in[key].(string); ok && v != "" {
				return fmt.Sprintf("%s(%s)", call.Name, v)
			}
		}
	}
	return call.Name
}

// buildSystemPrompt formats the tree and the loaded files into the system
// prompt. Files are sorted by path so the prompt is reproducible even though
// discovery order depends on fetch completion timing.
func buildSystemPrompt(loaded *loader.LoadedContext) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if loaded.TreeRendering != "" {
		b.WriteString("\n\n# Repository tree\n\n```\n")
		b.WriteString(loaded.TreeRendering)
		b.WriteString("```\n")
	}

	if len(loaded.Files) > 0 {
		files := make([]repo.FileRecord, len(loaded.Files))
		copy(files, loaded.Files)
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

		b.WriteString("\n# Relevant files\n")
		for _, f := range files {
			fmt.Fprintf(&b, "\n## %s\n\n```\n%s\n```\n", f.Path, f.Content)
		}
	}

	return b.String()
}
