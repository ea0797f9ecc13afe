package preview

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"
)

// RenderThumbnail draws img into cols x rows terminal cells. Each cell
// shows two vertically stacked pixels as an upper half block.
func RenderThumbnail(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return placeholder(cols, rows)
	}

	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	var b strings.Builder
	for row := range rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := range cols {
			top := small.RGBAAt(col, row*2)
			bottom := small.RGBAAt(col, row*2+1)
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render("▀"))
		}
	}
	return b.String()
}

func placeholder(cols, rows int) string {
	cols, rows = max(cols, 1), max(rows, 1)
	line := strings.Repeat("·", cols)
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = line
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#565656")).Render(strings.Join(lines, "\n"))
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}
