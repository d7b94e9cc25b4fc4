package cmd

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvguard/cmd/kv"
	"github.com/ValentinKolb/kvguard/cmd/util"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvguard",
		Short: "concurrency-bounded, retrying key-value store client",
		Long: fmt.Sprintf(`kvguard (v%s)

A client for remote key-value stores that bounds the number of requests in
flight and retries timed out requests with exponential backoff.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvguard",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvguard v%s\n", Version)
		},
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			config := util.GetGuardConfig()
			if err := config.Validate(); err != nil {
				return err
			}
			driverConfig, err := config.DriverConfig()
			if err != nil {
				return err
			}
			fmt.Print(config.String())
			fmt.Print(driverConfig.String())
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupGuardFlags(RootCmd)

	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// Interrupts cancel the context of the running command, which aborts pending retries.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
