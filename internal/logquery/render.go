package logquery

import (
	"bufio"
	"io"
)

const (
	separator = "    "
	nullText  = "NULL"
)

// Render writes a header line with the column names followed by one
// line per row.  Every value, header included, is followed by four
// spaces; NULL columns print as NULL.
func Render(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)

	for _, c := range Columns {
		bw.WriteString(c + separator)
	}
	bw.WriteByte('\n')

	for _, r := range rows {
		for _, f := range r.fields() {
			v := nullText
			if f.Valid {
				v = f.String
			}
			bw.WriteString(v + separator)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
