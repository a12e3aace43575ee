package engine

// loopState enumerates the states of the tool loop:
// Initial → RoundOne → [ToolExecution → RoundTwo] → Done.
type loopState int

const (
	stateInitial loopState = iota
	stateRoundOne
	stateToolExecution
	stateRoundTwo
	stateDone
)

func (s loopState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateRoundOne:
		return "round_one"
	case stateToolExecution:
		return "tool_execution"
	case stateRoundTwo:
		return "round_two"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// nextState is the pure transition function of the tool loop. toolCalls is
// only consulted on the round-one transition: zero calls ends the turn, any
// calls enter tool execution. The loop never exceeds two model rounds.
func nextState(s loopState, toolCalls int) loopState {
	switch s {
	case stateInitial:
		return stateRoundOne
	case stateRoundOne:
		if toolCalls == 0 {
			return stateDone
		}
		return stateToolExecution
	case stateToolExecution:
		return stateRoundTwo
	case stateRoundTwo:
		return stateDone
	default:
		return stateDone
	}
}
