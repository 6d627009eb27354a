package recon

// WriteOption configures a Writer.
type WriteOption func(*Writer)

// WithColors highlights written tokens. A nil palette disables color.
func WithColors(c *Colors) WriteOption {
	return func(w *Writer) { w.colors = c }
}

// WithSpaces separates block items with ", " and slot keys from values
// with ": ". The default output is compact.
func WithSpaces(v bool) WriteOption {
	return func(w *Writer) { w.spaces = v }
}

// WithMarkup writes records holding text as [ ] markup where the result
// reads back as the same record.
func WithMarkup(v bool) WriteOption {
	return func(w *Writer) { w.markup = v }
}
