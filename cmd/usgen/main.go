package main

import (
	"os"

	"github.com/studio-boxcat/unity-solution-generator/internal/commands"
	"github.com/studio-boxcat/unity-solution-generator/internal/output"
)

func main() {
	rootCmd := commands.RootCmd()
	rootCmd.AddCommand(commands.GenerateCmd())
	rootCmd.AddCommand(commands.PrepareVariantCmd())
	rootCmd.AddCommand(commands.WatchCmd())

	if err := rootCmd.Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}
