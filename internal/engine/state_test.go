package engine

import "testing"

func TestNextState(t *testing.T) {
	tests := []struct {
		name      string
		state     loopState
		toolCalls int
		want      loopState
	}{
		{"initial enters round one", stateInitial, 0, stateRoundOne},
		{"round one without tool calls finishes", stateRoundOne, 0, stateDone},
		{"round one with tool calls executes them", stateRoundOne, 3, stateToolExecution},
		{"tool execution enters round two", stateToolExecution, 0, stateRoundTwo},
		{"round two always finishes", stateRoundTwo, 5, stateDone},
		{"done is terminal", stateDone, 1, stateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextState(tt.state, tt.toolCalls); got != tt.want {
				t.Errorf("nextState(%v, %d) = %v, want %v", tt.state, tt.toolCalls, got, tt.want)
			}
		})
	}
}
