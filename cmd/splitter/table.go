package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// clipTable renders parsed clips with the position column right aligned.
func clipTable(clips []parsedClip) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Start", "End", "Flagged", "Title", "Clip"})

	for i, c := range clips {
		mark := ""
		if c.Flagged {
			mark = "yes"
		}
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), c.Start, c.End, mark, c.Title, c.ClipName})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
