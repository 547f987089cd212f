package main

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/coordhead/headcrypto"
	"github.com/synnergy-network/coordhead/protocol"
	"github.com/synnergy-network/coordhead/runtime"
)

// node wires protocol.Update to the runtime shell: it owns the current
// HeadState, applies every inbound Event serially, and dispatches the
// resulting Effects to the network, the journal, and subscribed clients.
// Grounded on core/consensus_start.go's single-goroutine "apply then
// dispatch" event loop, adapted from block consensus to head events.
type node struct {
	env     protocol.Environment
	ledger  protocol.Ledger
	journal *runtime.Journal
	net     *runtime.Network
	clients *runtime.Clients
	log     logrus.FieldLogger

	mu    sync.Mutex
	state protocol.HeadState
}

func newNode(self protocol.Party, sk headcrypto.SigningKey, others []protocol.Party, journal *runtime.Journal, net *runtime.Network, clients *runtime.Clients, log logrus.FieldLogger) *node {
	othersSet := make(map[protocol.Party]struct{}, len(others))
	for _, p := range others {
		if p != self {
			othersSet[p] = struct{}{}
		}
	}
	return &node{
		env:     protocol.Environment{Self: self, SigningKey: sk, Others: othersSet},
		ledger:  protocol.DefaultLedger{},
		journal: journal,
		net:     net,
		clients: clients,
		log:     log,
		state:   protocol.Idle(),
	}
}

// Deliver applies ev to the current state and dispatches its effects. It is
// safe for concurrent callers: the reducer itself is pure, but node.state
// is shared mutable bookkeeping around it.
func (n *node) Deliver(ev protocol.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.journal != nil {
		if err := n.journal.AppendEvent(ev); err != nil {
			n.log.WithError(err).Error("failed to journal event")
		}
	}

	outcome := protocol.Update(n.env, n.ledger, n.state, ev)
	switch outcome.Kind {
	case protocol.OutcomeNewState:
		n.state = outcome.State
		for _, eff := range outcome.Effects {
			n.dispatch(eff)
		}
	case protocol.OutcomeWait:
		n.log.WithField("reason", outcome.Wait.String()).Debug("event redelivery requested")
		go n.redeliver(ev, outcome.Wait)
	case protocol.OutcomeError:
		n.log.WithError(outcome.Error).Warn("event rejected")
	}
}

// redeliver implements the Wait contract (spec.md §4.6): "deliver me
// later". A contestation-period wait is retried on a longer, fixed 5s
// backoff; every other Wait reason is retried on a short,
// fixed backoff, since the condition it is waiting on (a seen snapshot, a
// snapshot number in flight) is expected to resolve quickly.
func (n *node) redeliver(ev protocol.Event, reason protocol.WaitReason) {
	delay := 200 * time.Millisecond
	if reason.Kind == protocol.WaitOnContestationPeriod {
		delay = 5 * time.Second
	}
	time.Sleep(delay)
	n.Deliver(ev)
}

func (n *node) dispatch(eff protocol.Effect) {
	switch eff.Kind {
	case protocol.EffectClient:
		if n.journal != nil {
			if err := n.journal.AppendServerOutput(eff.ServerOutput); err != nil {
				n.log.WithError(err).Error("failed to journal server output")
			}
		}
		if n.clients != nil {
			n.clients.Publish(eff.ServerOutput)
		}
	case protocol.EffectNetwork:
		if n.net == nil {
			return
		}
		if err := n.net.Publish(eff.Message); err != nil {
			n.log.WithError(err).Error("failed to publish network effect")
		}
	case protocol.EffectOnChain:
		// Posting on-chain transactions is explicitly out of scope for the
		// reducer (spec.md §1): this reference runtime only logs what would
		// be submitted. A production deployment wires this to a chain
		// submission capability.
		n.log.WithField("kind", eff.PostChainTx.Kind).Info("on-chain transaction ready for submission")
	case protocol.EffectDelay:
		go func() {
			time.Sleep(eff.Delay)
			n.Deliver(eff.DelayEvent)
		}()
	}
}

// Run feeds network events into the node until ctx is cancelled.
func (n *node) Run(ctx context.Context) {
	if n.net == nil {
		<-ctx.Done()
		return
	}
	for {
		select {
		case ev, ok := <-n.net.Events():
			if !ok {
				return
			}
			n.Deliver(ev)
		case <-ctx.Done():
			return
		}
	}
}
