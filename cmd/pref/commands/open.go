package commands

import (
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the backing file in $VISUAL or $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.OpenInEditor()
}
