package main

import (
	"fmt"

	"github.com/ferrobraz/parley/pkg/graph"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate dialogue content",
	Long:  `Loads every partner graph in the content directory and checks the node-reference invariant: all next pointers and option targets must resolve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		contentDir, _ := cmd.Flags().GetString("content")

		reg, err := graph.LoadDir(contentDir)
		if err != nil {
			return err
		}

		for _, partner := range reg.Partners() {
			g, _ := reg.Graph(partner)
			fmt.Printf("✓ %s (%d nodes, root %q)\n", partner, g.Len(), g.Root)
		}
		fmt.Println("All graphs valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
