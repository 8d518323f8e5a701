package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lomber1/notes-web"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notes version %s\n", notes.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
