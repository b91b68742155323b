package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the backing file path",
	Args:  cobra.NoArgs,
	RunE:  runPath,
}

func runPath(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Println(store.Path())
	return nil
}
