package cmd

import (
	"github.com/spf13/cobra"
	"upload-ai/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "upload-ai",
		Short:        "transcribe uploaded videos and stream AI completions over them",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(worker(config))
	rootCmd.AddCommand(upload(config))
	rootCmd.AddCommand(convert(config))
	return rootCmd
}
