/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// column is a table header and the alignment of the cells beneath it.
type column struct {
	header string
	align  tw.Align
}

// text columns hold names and free-form status.
func text(header string) column { return column{header: header, align: tw.AlignLeft} }

// number columns hold ratings, intervals and counts.
func number(header string) column { return column{header: header, align: tw.AlignRight} }

// newTable returns a markdown table with one column per cols, writing to w.
// Headers are left aligned; cells follow their column.
func newTable(w io.Writer, cols ...column) *tablewriter.Table {
	headers := make([]string, len(cols))
	aligns := make([]tw.Align, len(cols))
	for i, c := range cols {
		headers[i], aligns[i] = c.header, c.align
	}

	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft, PerColumn: aligns},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		// Status lines and model names stay on one row.
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
