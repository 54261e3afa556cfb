package session

// DefaultGalleryWidth is the number of images per gallery row.
const DefaultGalleryWidth = 5

// GalleryRows lays refs out in rows of width, left to right then top to
// bottom, preserving order. The last row may be short. A non-positive
// width falls back to DefaultGalleryWidth.
func GalleryRows(refs []string, width int) [][]string {
	if width <= 0 {
		width = DefaultGalleryWidth
	}
	if len(refs) == 0 {
		return [][]string{}
	}
	rows := make([][]string, 0, (len(refs)+width-1)/width)
	for start := 0; start < len(refs); start += width {
		end := min(start+width, len(refs))
		row := make([]string, end-start)
		copy(row, refs[start:end])
		rows = append(rows, row)
	}
	return rows
}
