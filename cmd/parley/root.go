package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a branching dialogue progression engine",
	Long:  `Parley runs gated, resumable conversations over authored dialogue graphs (one YAML file per partner).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("content", "content", "Directory containing partner graph YAML files")
	rootCmd.PersistentFlags().String("store", "memory", "State store backend: memory, file, or redis")
	rootCmd.PersistentFlags().String("state-dir", ".parley/conversations", "Base directory for the file store")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
}
