package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
)

// Field render limits in cells.
const (
	minFieldW = 20
	minFieldH = 8
	maxFieldW = 120
	maxFieldH = 40
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	paddleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	ballStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	netStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// cell kinds drive styling when the grid is turned into a string.
type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellBorder
	cellNet
	cellPaddle
	cellBall
)

// field is a character grid the pong field is rasterised into. The playing
// area sits inside a one-cell border.
type field struct {
	w, h  int
	runes [][]rune
	kinds [][]cellKind
}

func newField(w, h int) *field {
	w = core.Clamp(w, minFieldW, maxFieldW)
	h = core.Clamp(h, minFieldH, maxFieldH)
	f := &field{w: w, h: h}
	f.runes = make([][]rune, h)
	f.kinds = make([][]cellKind, h)
	for y := range f.runes {
		f.runes[y] = []rune(strings.Repeat(" ", w))
		f.kinds[y] = make([]cellKind, w)
	}
	return f
}

// set ignores out-of-bounds writes.
func (f *field) set(x, y int, r rune, k cellKind) {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return
	}
	f.runes[y][x] = r
	f.kinds[y][x] = k
}

func (f *field) get(x, y int) rune {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return ' '
	}
	return f.runes[y][x]
}

func (f *field) drawBorder() {
	right, bottom := f.w-1, f.h-1
	for x := 1; x < right; x++ {
		f.set(x, 0, '─', cellBorder)
		f.set(x, bottom, '─', cellBorder)
	}
	for y := 1; y < bottom; y++ {
		f.set(0, y, '│', cellBorder)
		f.set(right, y, '│', cellBorder)
	}
	f.set(0, 0, '┌', cellBorder)
	f.set(right, 0, '┐', cellBorder)
	f.set(0, bottom, '└', cellBorder)
	f.set(right, bottom, '┘', cellBorder)
}

// col maps a field X coordinate to a grid column inside the border.
func (f *field) col(x float64) int {
	inner := f.w - 2
	return 1 + core.Clamp(int(x/pong.FieldWidth*float64(inner)), 0, inner-1)
}

// row maps a field Y coordinate to a grid row inside the border.
func (f *field) row(y float64) int {
	inner := f.h - 2
	return 1 + core.Clamp(int(y/pong.FieldHeight*float64(inner)), 0, inner-1)
}

func (f *field) drawNet() {
	x := f.w / 2
	for y := 1; y < f.h-1; y += 2 {
		f.set(x, y, '┆', cellNet)
	}
}

func (f *field) drawPaddle(x int, p pong.Paddle) {
	top := f.row(p.Offset)
	bottom := f.row(p.Offset + p.Height - 1)
	for y := top; y <= bottom; y++ {
		f.set(x, y, '█', cellPaddle)
	}
}

func (f *field) drawBall(b pong.Ball) {
	f.set(f.col(b.X), f.row(b.Y), '●', cellBall)
}

// draw rasterises a snapshot. Paddles sit on the first and last inner columns.
func (f *field) draw(s pong.Snapshot) {
	f.drawBorder()
	f.drawNet()
	f.drawPaddle(1, s.Paddles[0])
	f.drawPaddle(f.w-2, s.Paddles[1])
	f.drawBall(s.Ball)
}

// plain returns the grid without styling.
func (f *field) plain() string {
	lines := make([]string, f.h)
	for y := range f.runes {
		lines[y] = string(f.runes[y])
	}
	return strings.Join(lines, "\n")
}

// render returns the grid with runs of equal kind styled together.
func (f *field) render() string {
	var sb strings.Builder
	sb.Grow(f.w*f.h*2 + f.h)
	for y := 0; y < f.h; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		x := 0
		for x < f.w {
			kind := f.kinds[y][x]
			start := x
			for x < f.w && f.kinds[y][x] == kind {
				x++
			}
			sb.WriteString(styleFor(kind).Render(string(f.runes[y][start:x])))
		}
	}
	return sb.String()
}

func styleFor(k cellKind) lipgloss.Style {
	switch k {
	case cellBorder:
		return borderStyle
	case cellNet:
		return netStyle
	case cellPaddle:
		return paddleStyle
	case cellBall:
		return ballStyle
	default:
		return lipgloss.NewStyle()
	}
}

// RenderField draws a snapshot into a w x h cell box.
func RenderField(s pong.Snapshot, w, h int) string {
	f := newField(w, h)
	f.draw(s)
	return f.render()
}
