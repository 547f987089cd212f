package protocol

// Update is the reducer contract of spec.md §4.1: a pure total function
// returning exactly one Outcome. It never mutates state or event; given
// identical (env, ledger, state, event) it always returns an identical
// Outcome, including effect order.
func Update(env Environment, ledger Ledger, state HeadState, event Event) Outcome {
	// Connected/Disconnected and Rollback apply in any state without
	// regard to the state's tag (spec.md §4.1).
	if event.Kind == EventNetwork {
		switch event.Network.Kind {
		case MsgConnected:
			return NewState(state, ClientEffect(ServerOutput{Kind: OutPeerConnected, Host: event.Network.Host}))
		case MsgDisconnected:
			return NewState(state, ClientEffect(ServerOutput{Kind: OutPeerDisconnected, Host: event.Network.Host}))
		}
	}
	if event.Kind == EventChain && event.Chain.Kind == ChainRollback {
		return handleRollback(state, event.Chain.Depth)
	}

	switch {
	case state.IsIdle():
		return updateIdle(env, state, event)
	case state.IsInitial():
		return updateInitial(env, ledger, state, event)
	case state.IsOpen():
		return updateOpen(env, ledger, state, event)
	case state.IsClosed():
		return updateClosed(env, state, event)
	case state.IsFinal():
		return invalidEvent(event, state)
	default:
		return invalidEvent(event, state)
	}
}

func updateIdle(env Environment, state HeadState, event Event) Outcome {
	if event.Kind == EventClient && event.Client.Kind == CmdInit {
		return onClientInit(state, event.Client.Parameters)
	}
	if event.Kind == EventChain && event.Chain.Kind == ChainObservation && event.Chain.Tx.Kind == OnInitTx {
		return onObserveInitTx(event.Chain.Tx.Parameters)
	}
	return invalidEvent(event, state)
}

func updateInitial(env Environment, ledger Ledger, state HeadState, event Event) Outcome {
	init, _ := state.AsInitial()
	switch event.Kind {
	case EventClient:
		switch event.Client.Kind {
		case CmdCommit:
			return onClientCommit(env, init, event.Client.Commit)
		case CmdAbort:
			return onClientAbort(env, init)
		}
	case EventChain:
		if event.Chain.Kind == ChainObservation {
			switch event.Chain.Tx.Kind {
			case OnCommitTx:
				return onObserveCommitTx(init, event.Chain.Tx)
			case OnCollectComTx:
				return onObserveCollectComTx(ledger, init)
			case OnAbortTx:
				return onObserveAbortTx(init)
			}
		}
	}
	return invalidEvent(event, state)
}

func updateOpen(env Environment, ledger Ledger, state HeadState, event Event) Outcome {
	open, _ := state.AsOpen()
	switch event.Kind {
	case EventNetwork:
		switch event.Network.Kind {
		case MsgReqTx:
			return onReqTx(env, ledger, open, event.Network)
		case MsgReqSn:
			return onReqSn(env, ledger, open, event.Network)
		case MsgAckSn:
			return onAckSn(env, ledger, open, event.Network)
		}
	case EventClient:
		switch event.Client.Kind {
		case CmdNewTx:
			return onClientNewTx(env, ledger, open, event.Client.Tx)
		case CmdClose:
			return onClientClose(open)
		case CmdGetUTxO:
			return onClientGetUTxO(open)
		}
	case EventChain:
		if event.Chain.Kind == ChainObservation && event.Chain.Tx.Kind == OnCloseTx {
			return onObserveCloseTx(open, event.Chain.Tx)
		}
	}
	return invalidEvent(event, state)
}

func updateClosed(env Environment, state HeadState, event Event) Outcome {
	closed, _ := state.AsClosed()
	switch event.Kind {
	case EventClient:
		if event.Client.Kind == CmdContest {
			return onClientContest(closed)
		}
	case EventChain:
		if event.Chain.Kind == ChainObservation {
			switch event.Chain.Tx.Kind {
			case OnContestTx:
				return onObserveContestTx(closed, event.Chain.Tx)
			case OnFanoutTx:
				return onObserveFanoutTx(closed)
			}
		}
	case EventShouldPostFanout:
		return onShouldPostFanout(closed)
	}
	return invalidEvent(event, state)
}
