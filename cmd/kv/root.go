package kv

import (
	"github.com/ValentinKolb/kvguard/cmd/util"
	"github.com/ValentinKolb/kvguard/lib/guard"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/spf13/cobra"
)

var (
	kvGuard  *guard.Guard
	rpcStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(setECmd)
	KeyValueCommands.AddCommand(setEIfUnsetCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(exprCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects a guard and routes all store calls of the command through it
func setupKVClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	g, err := util.NewGuard()
	if err != nil {
		return err
	}

	kvGuard = g
	rpcStore = g.Store(cmd.Context())
	return nil
}

// closeKVClient closes the guard's connection
func closeKVClient(_ *cobra.Command, _ []string) error {
	if kvGuard == nil {
		return nil
	}
	return kvGuard.Close()
}
