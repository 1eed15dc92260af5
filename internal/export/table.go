package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math/cmplx"
	"strconv"
)

// WriteCSV writes matrix in long form: one line per entry with its row,
// column, real and imaginary parts and magnitude.
func WriteCSV(w io.Writer, matrix [][]complex128) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"row", "col", "re", "im", "abs"}); err != nil {
		return err
	}
	for r, row := range matrix {
		for c, v := range row {
			rec := []string{
				strconv.Itoa(r),
				strconv.Itoa(c),
				formatFloat(real(v)),
				formatFloat(imag(v)),
				formatFloat(cmplx.Abs(v)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
