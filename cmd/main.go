package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manuscripta/apm/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "apm",
		Short: "manuscript transcription service",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewInstallCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
