package cli

import (
	"fmt"

	"github.com/relab/experimenttools/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Aggregate the artifacts of multiple sessions and serve them over HTTP.",
	Long: `serve collects the combined plot artifact of each given session output
directory into one server directory and serves that directory over HTTP.
Each session must have been updated at least once so that its artifact exists.

Sessions are given as name=path pairs:

	experimenttools serve --dir /tmp/server --session exp1=/tmp/exp1 --session exp2=/tmp/exp2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("dir")
		if dir == "" {
			return fmt.Errorf("a server directory must be given with --dir")
		}
		sessions := viper.GetStringMapString("session")
		if len(sessions) == 0 {
			return fmt.Errorf("at least one session must be given with --session name=path")
		}
		srv := session.NewServer(dir)
		for name, path := range sessions {
			if err := srv.Add(name, path); err != nil {
				return err
			}
		}
		return srv.ListenAndServe(viper.GetString("addr"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("dir", "", "directory to aggregate session artifacts into")
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	serveCmd.Flags().StringToString("session", nil, "session to serve, as name=path")
	cobra.CheckErr(viper.BindPFlags(serveCmd.Flags()))
}
