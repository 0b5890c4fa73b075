package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagemint",
	Short: "document workspace management tool",
	Example: `pagemint create -w <workspace-id> -u <user-id> -t <title>
pagemint get -d <doc-id> -u <user-id>
pagemint list -w <workspace-id> -u <user-id>
pagemint edit -d <doc-id> -u <user-id> -o <ops-json>
pagemint move -d <doc-id> -u <user-id> -n <order> [-p <parent-id>]
pagemint publish -d <doc-id> -u <user-id> [-v <version>]
pagemint archive -d <doc-id> -u <user-id>
pagemint erase -d <doc-id> -u <user-id>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
