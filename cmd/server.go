package cmd

import (
	"github.com/spf13/cobra"
	"upload-ai/config"
	server2 "upload-ai/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunHttp(config)
		},
	}
}

func worker(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "consume queued transcription requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunWorker(config)
		},
	}
}
