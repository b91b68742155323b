package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the full document as JSON",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Document()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
