package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:           "chat_probe",
		Short:         "Terminal client for the care relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8000/api", "relay API base URL")

	cmd.AddCommand(
		newChatCmd(&baseURL),
		newUploadCmd(&baseURL),
	)
	return cmd
}
