package cli

import (
	"fmt"
	"path/filepath"

	"github.com/relab/experimenttools/plotting"
	"github.com/relab/experimenttools/session"
	"github.com/spf13/cobra"
)

var replotCmd = &cobra.Command{
	Use:   "replot [session dir]",
	Short: "Rebuild a session's combined plot artifact from its serialized metrics.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		curves, err := plotting.ReadSerialized(filepath.Join(dir, session.SerializeDir))
		if err != nil {
			return err
		}
		if len(curves) == 0 {
			return fmt.Errorf("no serialized metrics found in %s", dir)
		}
		return plotting.Save(filepath.Join(dir, session.IndexFile), curves...)
	},
}

func init() {
	rootCmd.AddCommand(replotCmd)
}
