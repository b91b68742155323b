package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set the value at a dot-notation key",
	Long: `Set the value at a dot-notation key. VALUE is parsed as JSON
(numbers, booleans, null, objects, arrays); anything that does not parse
is stored as a string.

Examples:
  pref set theme dark
  pref set window.width 1280
  pref set features '{"beta": true}'`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Set(args[0], parseValue(args[1]))
}

// parseValue interprets raw as JSON when possible, string otherwise.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
