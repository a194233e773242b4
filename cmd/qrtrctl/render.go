package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// section is one titled, column-headed block of rows. Grounded on the
// teacher's cmd/pollen statusSection/renderStatusSections: a handful of
// named sections sharing one lipgloss table so column widths line up
// across them.
type section struct {
	title   string
	headers []string
	rows    [][]string
	footer  string
}

const (
	rowSection = iota
	rowHeader
	rowData
	rowSpacer
)

func renderSections(w io.Writer, sections []section) {
	maxCols := 0
	for _, sec := range sections {
		if len(sec.headers) > maxCols {
			maxCols = len(sec.headers)
		}
		for _, row := range sec.rows {
			if len(row) > maxCols {
				maxCols = len(row)
			}
		}
	}
	if maxCols == 0 {
		fmt.Fprintln(w, "(nothing to show)")
		return
	}

	padRow := func(src []string) []string {
		row := make([]string, maxCols)
		copy(row, src)
		return row
	}

	var rowKinds []int
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false)

	for i, sec := range sections {
		if i > 0 {
			t.Row(padRow(nil)...)
			rowKinds = append(rowKinds, rowSpacer)
		}
		t.Row(padRow([]string{sec.title})...)
		rowKinds = append(rowKinds, rowSection)
		t.Row(padRow(sec.headers)...)
		rowKinds = append(rowKinds, rowHeader)
		for _, dataRow := range sec.rows {
			t.Row(padRow(dataRow)...)
			rowKinds = append(rowKinds, rowData)
		}
	}

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")).PaddingRight(2)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingRight(2)
	dataStyle := lipgloss.NewStyle().PaddingRight(2)

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row < 0 || row >= len(rowKinds) {
			return dataStyle
		}
		switch rowKinds[row] {
		case rowSection:
			return sectionStyle
		case rowHeader:
			return headerStyle
		default:
			return dataStyle
		}
	})

	fmt.Fprintln(w, t)

	for _, sec := range sections {
		if sec.footer != "" {
			fmt.Fprintln(w, sec.footer)
		}
	}
}
