package table

import "slices"

// Delta summarises how a stage changed a table.
type Delta struct {
	AddedColumns   []string `json:"added_columns,omitempty"`
	RemovedColumns []string `json:"removed_columns,omitempty"`
	RowsBefore     int      `json:"rows_before"`
	RowsAfter      int      `json:"rows_after"`
	ChangedCells   int      `json:"changed_cells"`
}

// Unchanged reports whether the delta carries no change at all.
func (d Delta) Unchanged() bool {
	return len(d.AddedColumns) == 0 && len(d.RemovedColumns) == 0 &&
		d.RowsBefore == d.RowsAfter && d.ChangedCells == 0
}

// Diff compares two tables by column name. Cells are compared on shared
// columns for the rows both tables have.
func Diff(before, after Table) Delta {
	d := Delta{
		RowsBefore: len(before.Rows),
		RowsAfter:  len(after.Rows),
	}

	for _, name := range after.Header {
		if !slices.Contains(before.Header, name) {
			d.AddedColumns = append(d.AddedColumns, name)
		}
	}

	rows := min(len(before.Rows), len(after.Rows))
	for bi, name := range before.Header {
		ai := after.ColumnIndex(name)
		if ai < 0 {
			d.RemovedColumns = append(d.RemovedColumns, name)

			continue
		}
		for r := range rows {
			if before.Rows[r][bi] != after.Rows[r][ai] {
				d.ChangedCells++
			}
		}
	}

	return d
}
