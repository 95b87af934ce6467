package ui

import (
	"fmt"
	"io"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderTable writes rows under headers. plain forces ASCII borders.
func RenderTable(w io.Writer, headers []string, rows [][]string, plain bool) {
	table := tablewriter.NewWriter(w)
	table.Options(tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
	}))

	// Windows consoles render box-drawing characters poorly.
	if plain || runtime.GOOS == "windows" {
		table.Options(tablewriter.WithSymbols(&tw.SymbolASCII{}))
	}

	head := make([]any, 0, len(headers))
	for _, h := range headers {
		head = append(head, h)
	}
	table.Header(head...)

	for _, row := range rows {
		values := make([]any, 0, len(row))
		for _, v := range row {
			values = append(values, fmt.Sprintf("%v", v))
		}
		table.Append(values...)
	}

	table.Render()
}
