// Package runtime is the thin shell around package protocol that spec.md
// §1 calls "external collaborators, referenced only by interface": a
// libp2p gossip transport, an RLP write-ahead log, and a client
// notification fan-out, wiring protocol.Update to the outside world
// without protocol itself ever importing them.
package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/coordhead/protocol"
	"github.com/synnergy-network/coordhead/wire"
)

// NetworkConfig mirrors the teacher's core.Config, renamed to the fields
// pkg/config.Config.Network already exposes.
type NetworkConfig struct {
	ListenAddr     string
	BootstrapPeers []string
	DiscoveryTag   string
}

// Network publishes protocol.Message effects on a single per-head gossipsub
// topic and turns inbound pubsub messages, and mDNS peer events, into
// protocol.Events delivered on Events(). Grounded on core/network.go's
// Node: one host, one pubsub instance, topic/peer maps guarded by locks.
type Network struct {
	host   host.Host
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription

	peerLock sync.RWMutex
	peers    map[peer.ID]struct{}

	events chan protocol.Event
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

// NewNetwork bootstraps a libp2p host, joins the head's gossipsub topic,
// dials any bootstrap peers, and starts mDNS discovery, grounded on
// core/network.go's NewNode.
func NewNetwork(ctx context.Context, cfg NetworkConfig, log logrus.FieldLogger) (*Network, error) {
	ctx, cancel := context.WithCancel(ctx)

	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("runtime: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("runtime: create pubsub: %w", err)
	}

	topicName := "coordhead/" + cfg.DiscoveryTag
	topic, err := ps.Join(topicName)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("runtime: join topic %s: %w", topicName, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("runtime: subscribe topic %s: %w", topicName, err)
	}

	n := &Network{
		host:   h,
		pubsub: ps,
		topic:  topic,
		sub:    sub,
		peers:  make(map[peer.ID]struct{}),
		events: make(chan protocol.Event, 256),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}

	if err := n.dialSeeds(cfg.BootstrapPeers); err != nil {
		log.WithError(err).Warn("some bootstrap peers could not be dialed")
	}

	if err := mdns.NewMdnsService(h, cfg.DiscoveryTag, n).Start(); err != nil {
		log.WithError(err).Warn("mDNS discovery could not be started")
	}

	go n.readLoop()

	return n, nil
}

func (n *Network) dialSeeds(seeds []string) error {
	var errs []string
	for _, addr := range seeds {
		pi, err := peer.AddrInfoFromString(addr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid addr %s: %v", addr, err))
			continue
		}
		if err := n.host.Connect(n.ctx, *pi); err != nil {
			errs = append(errs, fmt.Sprintf("connect %s: %v", addr, err))
			continue
		}
		n.markConnected(pi.ID)
		n.log.WithField("peer", pi.ID.String()).Info("bootstrapped to peer")
	}
	if len(errs) > 0 {
		return fmt.Errorf("dial errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

var _ mdns.Notifee = (*Network)(nil)

// HandlePeerFound implements mdns.Notifee: connect to a newly discovered
// peer and surface a Connected NetworkEvent, grounded on
// core/network.go's HandlePeerFound.
func (n *Network) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == n.host.ID() {
		return
	}
	n.peerLock.RLock()
	_, known := n.peers[info.ID]
	n.peerLock.RUnlock()
	if known {
		return
	}
	if err := n.host.Connect(n.ctx, info); err != nil {
		n.log.WithError(err).WithField("peer", info.ID.String()).Warn("failed to connect to discovered peer")
		return
	}
	n.markConnected(info.ID)
	n.log.WithField("peer", info.ID.String()).Info("connected via mDNS")
}

func (n *Network) markConnected(id peer.ID) {
	n.peerLock.Lock()
	n.peers[id] = struct{}{}
	n.peerLock.Unlock()
	select {
	case n.events <- protocol.NetworkEvent(protocol.Message{Kind: protocol.MsgConnected, Host: id.String()}):
	case <-n.ctx.Done():
	}
}

// Publish encodes msg with the wire codec and gossips it on the head topic.
func (n *Network) Publish(msg protocol.Message) error {
	data, err := wire.MarshalMessage(msg)
	if err != nil {
		return fmt.Errorf("runtime: encode message: %w", err)
	}
	if err := n.topic.Publish(n.ctx, data); err != nil {
		return fmt.Errorf("runtime: publish message: %w", err)
	}
	return nil
}

// Events returns the channel of Events derived from inbound gossip and
// peer connectivity. The caller feeds these into protocol.Update.
func (n *Network) Events() <-chan protocol.Event { return n.events }

func (n *Network) readLoop() {
	defer close(n.events)
	for {
		raw, err := n.sub.Next(n.ctx)
		if err != nil {
			if n.ctx.Err() == nil {
				n.log.WithError(err).Warn("gossipsub read failed")
			}
			return
		}
		if raw.ReceivedFrom == n.host.ID() {
			continue
		}
		msg, err := wire.UnmarshalMessage(raw.Data)
		if err != nil {
			n.log.WithError(err).Warn("dropping malformed gossip message")
			continue
		}
		select {
		case n.events <- protocol.NetworkEvent(msg):
		case <-n.ctx.Done():
			return
		}
	}
}

// Close tears the node down, grounded on core/network.go's Node.Close.
func (n *Network) Close() error {
	n.cancel()
	n.sub.Cancel()
	return n.host.Close()
}
