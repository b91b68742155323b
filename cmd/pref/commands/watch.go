package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [KEY]",
	Short: "Print value transitions until interrupted",
	Long: `Watch the store for changes made by other processes. With a KEY,
prints each value transition at that key; without one, reports every
document change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	store, err := openStore(true)
	if err != nil {
		return err
	}
	defer store.Close()

	print := func(label string, v any) {
		out, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Printf("%s %s\n", label, out)
	}

	if len(args) == 1 {
		dispose, err := store.OnDidChange(args[0], func(newValue, oldValue any) {
			print("-", oldValue)
			print("+", newValue)
		})
		if err != nil {
			return err
		}
		defer dispose()
	} else {
		dispose, err := store.OnDidAnyChange(func(newDoc, oldDoc map[string]any) {
			print("*", newDoc)
		})
		if err != nil {
			return err
		}
		defer dispose()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}
