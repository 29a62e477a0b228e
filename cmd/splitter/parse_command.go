package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/heimdex/heimdex-splitter/internal/clipname"
	"github.com/heimdex/heimdex-splitter/internal/indexparse"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// parsedClip is one segment together with the clip file it would produce.
type parsedClip struct {
	indexparse.Segment `yaml:",inline"`
	ClipName           string `json:"clipName" yaml:"clipName"`
}

func newParseCommand() *cobra.Command {
	var mode string
	var strategy string
	var format string

	cmd := &cobra.Command{
		Use:   "parse [index-file]",
		Short: "Show the segments and clip names an index text produces",
		Long: "Parse an index text without splitting anything. The text is read from " +
			"the given file, or from stdin when the argument is omitted or \"-\".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parseMode, err := indexparse.ParseMode(mode)
			if err != nil {
				return err
			}
			parse, err := indexparse.Lookup(strategy)
			if err != nil {
				return err
			}

			text, err := readIndexText(cmd, args)
			if err != nil {
				return err
			}

			segments := parse(text, parseMode)
			clips := make([]parsedClip, len(segments))
			for i, s := range segments {
				clips[i] = parsedClip{Segment: s, ClipName: clipname.NameFor(s, i)}
			}

			return writeClips(cmd.OutOrStdout(), resolveFormat(format, cmd.OutOrStdout()), clips)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(indexparse.ModeAll), "Segments to keep: all or flaggedOnly")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", indexparse.StrategyBlock, "Parser: block or line")
	cmd.Flags().StringVarP(&format, "format", "f", formatAuto, "Output format: auto, table, json or yaml")
	return cmd
}

func readIndexText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read index: %w", err)
	}
	return string(data), nil
}

// resolveFormat picks a table for terminals and JSON for pipes when format
// is auto.
func resolveFormat(format string, w io.Writer) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != formatAuto && format != "" {
		return format
	}
	if isTerminal(w) {
		return formatTable
	}
	return formatJSON
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeClips(w io.Writer, format string, clips []parsedClip) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(clips)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(clips); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		return writeClipTable(w, clips)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeClipTable(w io.Writer, clips []parsedClip) error {
	if len(clips) == 0 {
		_, err := fmt.Fprintln(w, "No segments found.")
		return err
	}

	flagged := 0
	for _, c := range clips {
		if c.Flagged {
			flagged++
		}
	}

	table := clipTable(clips)
	_, err := fmt.Fprintf(w, "%s\n%d segments, %d flagged\n", table, len(clips), flagged)
	return err
}
