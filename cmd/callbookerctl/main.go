// Command callbookerctl is an operator tool for signing and checking support
// links, issuing integration tokens and applying the database schema.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "callbookerctl",
		Short:         "Operator tooling for the callbooker API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLinkCmd(), newTokenCmd(), newMigrateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// secretFlag falls back to the named env var when the flag is empty.
func secretFlag(flag, env string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("--secret or %s is required", env)
}
