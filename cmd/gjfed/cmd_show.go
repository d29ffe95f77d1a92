package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gjfed/internal/directive"
	"gjfed/internal/gjf"
)

// showCmd prints the parsed structure of a file's route lines.
var showCmd = &cobra.Command{
	Use:   "show <file.gjf>",
	Short: "Print the parsed keyword structure of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		canonical, _ := cmd.Flags().GetBool("canonical")

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		sections, err := gjf.Split(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		parser := directive.NewParser(cat)
		serializer := directive.NewSerializer(cat)
		for i := range sections {
			sec := &sections[i]
			fmt.Printf("%s (line %d)\n", sectionLabel(sec), sec.StartLine+1)
			if !sec.HasRoute() {
				fmt.Println("  no route line")
				continue
			}
			set, err := sec.Parse(parser)
			if err != nil {
				fmt.Printf("  route line: %v\n", err)
				continue
			}
			if canonical {
				fmt.Printf("  %s\n", serializer.Render(set))
				continue
			}
			for _, e := range set.Entries {
				printEntry(e)
			}
		}
		return nil
	},
}

func printEntry(e directive.KeywordEntry) {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(e.Name)
	if e.Unrecognized {
		b.WriteString(" (unrecognized)")
	}
	fmt.Println(b.String())
	for _, p := range e.Params {
		if p.Value == "" {
			fmt.Printf("    %s\n", p.Name)
		} else {
			fmt.Printf("    %s = %s\n", p.Name, p.Value)
		}
	}
}

func init() {
	showCmd.Flags().BoolP("canonical", "c", false, "print canonical route lines instead of the keyword tree")
}
