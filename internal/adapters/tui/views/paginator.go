package views

// Paginator tracks a cursor over a list shown one page at a time
type Paginator struct {
	size   int
	total  int
	cursor int
	offset int
}

// NewPaginator creates a paginator showing size rows per page
func NewPaginator(size int) *Paginator {
	if size <= 0 {
		size = notesPageSize
	}
	return &Paginator{size: size}
}

// SetTotal changes the list length, keeping the cursor in range
func (p *Paginator) SetTotal(total int) {
	p.total = total
	p.move(p.cursor)
}

// Cursor returns the absolute cursor position
func (p *Paginator) Cursor() int { return p.cursor }

// SetCursor moves the cursor, clamped to the list
func (p *Paginator) SetCursor(pos int) { p.move(pos) }

// CursorUp moves the cursor one row up and reports whether it moved
func (p *Paginator) CursorUp() bool { return p.move(p.cursor - 1) }

// CursorDown moves the cursor one row down and reports whether it moved
func (p *Paginator) CursorDown() bool { return p.move(p.cursor + 1) }

// NextPage jumps to the first row of the next page
func (p *Paginator) NextPage() bool {
	if p.offset+p.size >= p.total {
		return false
	}
	return p.move(p.offset + p.size)
}

// PrevPage jumps to the first row of the previous page
func (p *Paginator) PrevPage() bool {
	if p.offset == 0 {
		return false
	}
	return p.move(max(p.offset-p.size, 0))
}

// VisibleRange returns the half-open index range of the current page
func (p *Paginator) VisibleRange() (start, end int) {
	return p.offset, min(p.offset+p.size, p.total)
}

// TotalPages returns the number of pages, at least one
func (p *Paginator) TotalPages() int {
	return max((p.total+p.size-1)/p.size, 1)
}

// CurrentPage returns the 1-based page holding the cursor
func (p *Paginator) CurrentPage() int {
	return p.offset/p.size + 1
}

func (p *Paginator) move(pos int) bool {
	pos = min(pos, p.total-1)
	pos = max(pos, 0)
	moved := pos != p.cursor
	p.cursor = pos
	p.offset = (pos / p.size) * p.size
	return moved
}
