package main

import (
	"fmt"
	"os"

	"github.com/benvon/corsgate/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "corsgate-configure",
		Short: "Configuration tool for corsgate",
		Long:  "CLI tool for inspecting and validating the CORS policy corsgate serves",
	}

	rootCmd.AddCommand(commands.NewPolicyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
