package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Release names and titles wrap so the link column stays on one line.
const (
	releaseWidth = 48
	titleWidth   = 40
)

// column describes one listing column. A positive width soft-wraps longer
// cells at word boundaries.
type column struct {
	title string
	align text.Align
	width int
}

func textColumn(title string) column {
	return column{title: title, align: text.AlignLeft}
}

func numberColumn(title string) column {
	return column{title: title, align: text.AlignRight}
}

func (c column) wrapAt(width int) column {
	c.width = width
	return c
}

// listing accumulates rows for a rounded go-pretty table.
type listing struct {
	columns []column
	rows    []table.Row
	footer  table.Row
}

func newListing(columns ...column) *listing {
	return &listing{columns: columns}
}

// add appends a row. Missing trailing cells render empty; extra cells are
// dropped.
func (l *listing) add(cells ...any) {
	row := make(table.Row, len(l.columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	l.rows = append(l.rows, row)
}

func (l *listing) total(cells ...any) {
	l.footer = table.Row(cells)
}

func (l *listing) empty() bool {
	return len(l.rows) == 0
}

func (l *listing) render() string {
	if len(l.columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(l.columns))
	configs := make([]table.ColumnConfig, len(l.columns))
	for i, c := range l.columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            c.align,
			AlignHeader:      text.AlignLeft,
			AlignFooter:      c.align,
			WidthMax:         c.width,
			WidthMaxEnforcer: text.WrapSoft,
		}
	}
	tw.AppendHeader(header)
	tw.AppendRows(l.rows)
	if len(l.footer) > 0 {
		tw.AppendFooter(l.footer)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
