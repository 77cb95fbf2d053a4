package export

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Widths optionally sets per-column widths in millimetres, matched to Headers by index.
	Widths []float64
}
