package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/config"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/obs"
)

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "cartengine",
		Short:         "Cart reconciliation and reminder engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitConfig(configFile); err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			cnf, err := config.Fetch()
			if err != nil {
				return err
			}
			obs.InitLogger(cnf.Log.Level, cnf.Log.Format)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./cartengine.json", "configuration file")
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(workerCommand())
	return rootCmd
}

func main() {
	defer recoverPanic()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
