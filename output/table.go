package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/s0up4200/apodctl/apod"
)

// Table renders entries one per row
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewEntryTable creates a borderless table writing to w
func NewEntryTable(w io.Writer) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{
		table:  table,
		header: []string{"date", "media", "title", "copyright", "permalink"},
	}
}

// AddEntries adds one row per entry
func (t *Table) AddEntries(entries []apod.Entry) {
	for _, e := range entries {
		t.rows = append(t.rows, []string{
			e.Date.Format(dateLayout),
			e.MediaType.String(),
			oneLine(e.Title),
			oneLine(e.Copyright),
			apod.Permalink(e),
		})
	}
}

// Render outputs the table
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	return t.table.Render()
}
