package cmd

import (
	"cassette/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Cassette HTTP server",
	Long:  `Start the Cassette music sharing server, serving the JSON API and media streaming endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
