package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gjfed/internal/compat"
	"gjfed/internal/directive"
	"gjfed/internal/gjf"
)

// checkCmd validates route lines without opening the editor. Exit code 1
// means at least one hard violation; parse failures and I/O problems exit 2
// via the usual error path.
var checkCmd = &cobra.Command{
	Use:   "check <file.gjf>...",
	Short: "Validate the route lines of one or more input files",
	Long: `Check parses every route line of the given files and reports rule
violations and advisories. The exit status is non-zero when any file has a
hard violation, which makes check usable from scripts and pre-submit hooks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		parser := directive.NewParser(cat)
		failed := false
		for _, path := range args {
			ok, err := checkFile(parser, path, quiet)
			if err != nil {
				return err
			}
			if !ok {
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
		return nil
	},
}

func checkFile(parser *directive.Parser, path string, quiet bool) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sections, err := gjf.Split(f)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	ok := true
	for i := range sections {
		sec := &sections[i]
		if !sec.HasRoute() {
			continue
		}
		set, err := sec.Parse(parser)
		if err != nil {
			ok = false
			fmt.Printf("%s %s: route line: %v\n", path, sectionLabel(sec), err)
			continue
		}
		res, err := compat.Validate(set, cat)
		if err != nil {
			return false, err
		}
		if !res.OK() {
			ok = false
		}
		printResult(path, sec, res, quiet)
	}
	logger.Debug("checked file", zap.String("path", path), zap.Bool("ok", ok))
	return ok, nil
}

func printResult(path string, sec *gjf.Section, res *compat.Result, quiet bool) {
	label := sectionLabel(sec)
	for _, v := range res.Violations {
		fmt.Printf("%s %s: error: %s\n", path, label, v.Message)
	}
	if quiet {
		return
	}
	for _, a := range res.Advisories {
		fmt.Printf("%s %s: note: %s\n", path, label, a.Message)
	}
	if res.OK() && len(res.Advisories) == 0 {
		fmt.Printf("%s %s: ok\n", path, label)
	}
}

func sectionLabel(sec *gjf.Section) string {
	if id := sec.ID(); id != "" {
		return "[" + id + "]"
	}
	return "[main]"
}

func init() {
	checkCmd.Flags().BoolP("quiet", "q", false, "report violations only, no advisories")
}
