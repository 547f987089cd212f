package protocol

// This file implements spec.md §4.4: Rollback pops depth layers off the
// prev chain. Idle and Final carry no history and roll back to themselves,
// which HeadState.prev already encodes.
func handleRollback(state HeadState, depth int) Outcome {
	s := state
	for i := 0; i < depth; i++ {
		s = s.prev()
	}
	return NewState(s, ClientEffect(ServerOutput{Kind: OutRolledBack}))
}
