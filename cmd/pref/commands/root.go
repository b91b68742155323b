// Package commands provides the CLI commands for pref.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/npezza93/pref"
	"github.com/npezza93/pref/internal/logging"
)

// Version information set at build time
var Version = "0.1.0"

// Global flags
var (
	storeDir  string
	storeName string
	storeExt  string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "pref",
	Short: "pref - inspect and edit a JSON preference store",
	Long: `pref reads and writes the JSON preference files managed by the pref
library. Keys use dot notation ("window.size.width") and values are
parsed as JSON, falling back to plain strings.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Pretty: true,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDir, "dir", "", "Store directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&storeName, "name", "config", "Config file name without extension")
	rootCmd.PersistentFlags().StringVar(&storeExt, "ext", "json", "Config file extension")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Log level (DEBUG|INFO|WARN|ERROR)")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore builds a store from the global flags. Watching is off for
// one-shot commands; the watch command opens its own store.
func openStore(enableWatch bool) (*pref.Store, error) {
	dir := storeDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	return pref.New(pref.Options{
		Dir:           dir,
		FileName:      storeName,
		FileExtension: storeExt,
		DisableWatch:  !enableWatch,
		Logger:        &logging.Logger,
	})
}
