// Command head is the reference node binary for the coordinated Head
// protocol: it wires protocol.Update to the chain, headcrypto, wire, and
// runtime packages, since the protocol package itself, per spec.md §1,
// deliberately leaves the outer runtime to "external collaborators,
// referenced only by interface."
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cmdconfig "github.com/synnergy-network/coordhead/cmd/config"
	"github.com/synnergy-network/coordhead/headcrypto"
	pkgconfig "github.com/synnergy-network/coordhead/pkg/config"
	"github.com/synnergy-network/coordhead/protocol"
	"github.com/synnergy-network/coordhead/runtime"
	"github.com/synnergy-network/coordhead/wire"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{Use: "head", Short: "coordinated Head protocol node"}
	root.PersistentFlags().String("env", "", "configuration override name (e.g. testnet)")

	root.AddCommand(runCmd())
	root.AddCommand(initCmd())
	root.AddCommand(closeCmd())
	root.AddCommand(contestCmd())
	root.AddCommand(utxoCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration through cmd/config's thin wrapper, the
// same entry point the teacher's own command binaries call at startup
// (cmd/dexserver/main.go: config.LoadConfig(os.Getenv("SYNN_ENV"))).
// LoadConfig panics on a bad configuration, matching the teacher's own
// "acceptable for command line initialisation" behaviour.
func loadConfig(cmd *cobra.Command) *pkgconfig.Config {
	env, _ := cmd.Flags().GetString("env")
	cmdconfig.LoadConfig(env)
	return &cmdconfig.AppConfig
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

// selfSigningKey loads the node's signing key from keyFile, generating and
// persisting a fresh one on first run.
func selfSigningKey(keyFile string) (headcrypto.SigningKey, headcrypto.VerificationKey, error) {
	if data, err := os.ReadFile(keyFile); err == nil {
		sk, err := headcrypto.SigningKeyFromBytes(data)
		if err != nil {
			return headcrypto.SigningKey{}, headcrypto.VerificationKey{}, fmt.Errorf("decode signing key: %w", err)
		}
		return sk, sk.Public(), nil
	}
	sk, vk, err := headcrypto.GenerateKey()
	if err != nil {
		return headcrypto.SigningKey{}, headcrypto.VerificationKey{}, fmt.Errorf("generate signing key: %w", err)
	}
	if err := os.WriteFile(keyFile, sk.Bytes(), 0o600); err != nil {
		return headcrypto.SigningKey{}, headcrypto.VerificationKey{}, fmt.Errorf("persist signing key: %w", err)
	}
	return sk, vk, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run a node, gossiping with its peers until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			log := newLogger(cfg.Logging.Level)

			sk, vk, err := selfSigningKey(cfg.Signing.KeyFile)
			if err != nil {
				return err
			}
			self := protocol.PartyOf(vk)

			parties := make([]protocol.Party, len(cfg.Head.Parties))
			for i, p := range cfg.Head.Parties {
				parties[i] = protocol.Party(p)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			journal, err := runtime.OpenJournal(cfg.Storage.JournalPath, nil, nil)
			if err != nil {
				return err
			}
			defer journal.Close()

			netCfg := runtime.NetworkConfig{
				ListenAddr:     cfg.Network.ListenAddr,
				BootstrapPeers: cfg.Network.BootstrapPeers,
				DiscoveryTag:   cfg.Network.DiscoveryTag,
			}
			net, err := runtime.NewNetwork(ctx, netCfg, log)
			if err != nil {
				return err
			}
			defer net.Close()

			clients := runtime.NewClients(log)
			n := newNode(self, sk, parties, journal, net, clients, log)

			log.WithField("self", string(self)).Info("head node started")
			n.Run(ctx)
			log.Info("head node stopped")
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "build and print the Init client command for this head's configured parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			parties := make([]protocol.Party, len(cfg.Head.Parties))
			for i, p := range cfg.Head.Parties {
				parties[i] = protocol.Party(p)
			}
			ev := protocol.ClientEvent(protocol.Command{
				Kind: protocol.CmdInit,
				Parameters: protocol.HeadParameters{
					ContestationPeriod: time.Duration(cfg.Head.ContestationPeriodSeconds) * time.Second,
					Parties:            parties,
				},
			})
			return printEvent(ev)
		},
	}
}

func closeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "build and print the Close client command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printEvent(protocol.ClientEvent(protocol.Command{Kind: protocol.CmdClose}))
		},
	}
}

func contestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contest",
		Short: "build and print the Contest client command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printEvent(protocol.ClientEvent(protocol.Command{Kind: protocol.CmdContest}))
		},
	}
}

func utxoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "utxo",
		Short: "build and print the GetUTxO client command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printEvent(protocol.ClientEvent(protocol.Command{Kind: protocol.CmdGetUTxO}))
		},
	}
}

// printEvent prints an offline-constructed client Event as the JSON a
// running node's IPC endpoint would accept, per SPEC_FULL.md's "print the
// constructed effect when run offline" fallback for a node that isn't
// listening on a local socket in this reference implementation.
func printEvent(ev protocol.Event) error {
	data, err := wire.MarshalEvent(ev)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
