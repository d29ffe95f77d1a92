package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// keywordsCmd lists what the loaded catalog knows.
var keywordsCmd = &cobra.Command{
	Use:   "keywords [query]",
	Short: "List catalog keywords, optionally filtered by a search query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		categoryID, _ := cmd.Flags().GetString("category")
		showRules, _ := cmd.Flags().GetBool("rules")

		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		if categoryID != "" && !cat.HasCategory(categoryID) {
			return fmt.Errorf("unknown category %q", categoryID)
		}

		for _, c := range cat.Categories() {
			if categoryID != "" && !strings.EqualFold(c.ID, categoryID) {
				continue
			}
			defs := cat.Search(query, c.ID)
			if len(defs) == 0 {
				continue
			}
			fmt.Printf("%s:\n", c.Display)
			for _, def := range defs {
				line := "  " + def.Name
				if len(def.Parameters) > 0 {
					names := make([]string, len(def.Parameters))
					for i, p := range def.Parameters {
						names[i] = p.Name
					}
					line += "(" + strings.Join(names, ", ") + ")"
				}
				if def.Description != "" {
					line += " - " + def.Description
				}
				fmt.Println(line)
				if showRules {
					for _, r := range cat.RulesFor(def.Name) {
						fmt.Printf("      %s\n", r)
					}
				}
			}
		}
		return nil
	},
}

func init() {
	keywordsCmd.Flags().String("category", "", "restrict listing to one category id")
	keywordsCmd.Flags().Bool("rules", false, "show the compatibility rules in scope for each keyword")
}
