package types

// RecordSet holds the result of an enrollment-waiver lookup: every row and
// every column the reporting view returned, in view order. The view's schema
// is treated as opaque, so columns are carried by name rather than mapped to
// a struct.
type RecordSet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the lookup matched no rows. An empty set is a valid
// result, distinct from a query failure.
func (rs RecordSet) Empty() bool {
	return len(rs.Rows) == 0
}

// Len returns the number of matched rows.
func (rs RecordSet) Len() int {
	return len(rs.Rows)
}

// Select returns a new RecordSet reduced to the named columns, preserving
// the requested order. Columns absent from the set are skipped.
func (rs RecordSet) Select(names ...string) RecordSet {
	index := make(map[string]int, len(rs.Columns))
	for i, col := range rs.Columns {
		index[col] = i
	}

	keep := make([]int, 0, len(names))
	cols := make([]string, 0, len(names))
	for _, name := range names {
		if i, ok := index[name]; ok {
			keep = append(keep, i)
			cols = append(cols, name)
		}
	}

	rows := make([][]string, len(rs.Rows))
	for r, row := range rs.Rows {
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		rows[r] = out
	}

	return RecordSet{Columns: cols, Rows: rows}
}
