package renderer

import (
	"errors"
	"math"
	"sort"

	"github.com/gogpu/gg"
)

// Pattern is a procedural animation drawn fresh on every composite pass.
// Draw must be a pure function of the params and t.
type Pattern struct {
	Name  string
	Title string
	Notes string // markdown
	Draw  func(dc *gg.Context, p Params, t float64) error
}

var patterns = map[string]Pattern{
	"aurora": {
		Name:  "aurora",
		Title: "Aurora",
		Notes: "Soft **curtains** of light drifting over a vertical gradient.\n\n" +
			"- `density` sets how many curtains\n- `strength` sets their opacity",
		Draw: drawAurora,
	},
	"plasma": {
		Name:  "plasma",
		Title: "Plasma",
		Notes: "Classic sine **plasma** sampled on a coarse grid.\n\n" +
			"- `density` scales the interference pattern\n- `strength` mixes toward the first color",
		Draw: drawPlasma,
	},
	"radial": {
		Name:  "radial",
		Title: "Radial",
		Notes: "A breathing **radial gradient** whose center orbits the canvas.",
		Draw:  drawRadial,
	},
	"spiral": {
		Name:  "spiral",
		Title: "Spiral",
		Notes: "Dots wound along a rotating **Archimedean spiral**.\n\n- `density` sets the number of turns",
		Draw:  drawSpiral,
	},
	"metaballs": {
		Name:  "metaballs",
		Title: "Metaballs",
		Notes: "Glowing **blobs** on Lissajous paths, blended additively.",
		Draw:  drawMetaballs,
	},
}

// Patterns lists the available patterns by name.
func Patterns() []Pattern {
	out := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a pattern by name.
func Lookup(name string) (Pattern, bool) {
	p, ok := patterns[name]
	return p, ok
}

// animTime maps the renderer's clock onto the pattern's own time axis.
func animTime(p Params, t float64) float64 {
	return (t + p.TimeOffset) * p.Speed
}

// withView applies zoom and rotation about the canvas center.
func withView(dc *gg.Context, p Params, draw func() error) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.Push()
	defer dc.Pop()
	dc.Translate(w/2, h/2)
	dc.Rotate(p.Rotation * math.Pi / 180)
	dc.Scale(p.Zoom, p.Zoom)
	dc.Translate(-w/2, -h/2)
	return draw()
}

func fillRect(dc *gg.Context, x, y, w, h float64, b gg.Brush) error {
	dc.SetFillBrush(b)
	dc.DrawRectangle(x, y, w, h)
	return dc.Fill()
}

func drawAurora(dc *gg.Context, p Params, t float64) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	pal := p.Palette()
	at := animTime(p, t)

	bg := gg.NewLinearGradientBrush(0, 0, 0, h).
		AddColorStop(0, pal[0]).
		AddColorStop(1, pal[0].Lerp(pal[1], 0.35))
	if err := fillRect(dc, 0, 0, w, h, bg); err != nil {
		return err
	}

	bands := max(2, int(math.Round(4*p.Density)))
	return withView(dc, p, func() error {
		var errs []error
		for i := range bands {
			phase := float64(i) / float64(bands)
			cx := w * (0.5 + 0.35*math.Sin(at*0.7+phase*2*math.Pi))
			cy := h * (0.3 + 0.2*math.Cos(at*0.5+phase*math.Pi))
			col := pal[1].Lerp(pal[2], 0.5+0.5*math.Sin(at+phase*4))
			col.A = p.Strength * 0.45

			dc.SetFillBrush(gg.Solid(col))
			dc.DrawEllipse(cx, cy, w*0.45, h*(0.08+0.05*math.Sin(at*1.3+phase*6)))
			errs = append(errs, dc.Fill())
		}
		return errors.Join(errs...)
	})
}

// plasmaCells is the grid resolution of the plasma field per axis.
const plasmaCells = 48

func drawPlasma(dc *gg.Context, p Params, t float64) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	pal := p.Palette()
	at := animTime(p, t)
	cw, ch := w/plasmaCells, h/plasmaCells

	return withView(dc, p, func() error {
		for gy := range plasmaCells {
			for gx := range plasmaCells {
				u := (float64(gx)+0.5)/plasmaCells - 0.5
				v := (float64(gy)+0.5)/plasmaCells - 0.5
				px, py := u*p.Density*5, v*p.Density*5

				val := math.Sin(px + at)
				val += math.Sin((py + at) / 2)
				val += math.Sin((px + py + at) / 2)
				px += math.Sin(at / 3)
				py += math.Cos(at / 2)
				val += math.Sin(math.Sqrt(px*px+py*py+1) + at)
				val /= 2

				rainbow := gg.RGB(
					0.5+0.5*math.Sin(val*math.Pi),
					0.5+0.5*math.Sin(val*math.Pi+2*math.Pi/3),
					0.5+0.5*math.Sin(val*math.Pi+4*math.Pi/3),
				)
				col := pal[0].Lerp(rainbow, p.Strength)
				col = col.Lerp(pal[1], 0.5+0.5*math.Sin(val*math.Pi)*0.5)
				col = col.Lerp(pal[2], math.Abs(math.Cos(val*math.Pi))*0.3)
				col.A = 1

				// Overlap by a pixel so rotated cells leave no seams.
				if err := fillRect(dc, float64(gx)*cw, float64(gy)*ch, cw+1, ch+1, gg.Solid(col)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func drawRadial(dc *gg.Context, p Params, t float64) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	pal := p.Palette()
	at := animTime(p, t)

	if err := fillRect(dc, 0, 0, w, h, gg.Solid(pal[0])); err != nil {
		return err
	}
	return withView(dc, p, func() error {
		cx := w * (0.5 + 0.2*math.Cos(at*0.8))
		cy := h * (0.5 + 0.2*math.Sin(at*0.8))
		r := math.Hypot(w, h) * (0.35 + 0.15*math.Sin(at*1.5)) / p.Density
		mid := 0.5 + 0.25*math.Sin(at)*p.Strength

		b := gg.NewRadialGradientBrush(cx, cy, 0, r).
			AddColorStop(0, pal[2]).
			AddColorStop(mid, pal[1]).
			AddColorStop(1, pal[0]).
			SetExtend(gg.ExtendReflect)
		return fillRect(dc, -w, -h, 3*w, 3*h, b)
	})
}

func drawSpiral(dc *gg.Context, p Params, t float64) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	pal := p.Palette()
	at := animTime(p, t)

	if err := fillRect(dc, 0, 0, w, h, gg.Solid(pal[0])); err != nil {
		return err
	}

	turns := 3 * p.Density
	const dots = 160
	maxR := math.Min(w, h) * 0.48
	return withView(dc, p, func() error {
		var errs []error
		for i := range dots {
			f := float64(i) / dots
			angle := f*turns*2*math.Pi + at
			r := f * maxR
			col := pal[1].Lerp(pal[2], 0.5+0.5*math.Sin(f*8-at*2))
			col.A = 0.35 + 0.65*p.Strength

			dc.SetFillBrush(gg.Solid(col))
			dc.DrawCircle(w/2+r*math.Cos(angle), h/2+r*math.Sin(angle), 1.5+f*maxR*0.05)
			errs = append(errs, dc.Fill())
		}
		return errors.Join(errs...)
	})
}

func drawMetaballs(dc *gg.Context, p Params, t float64) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	pal := p.Palette()
	at := animTime(p, t)

	if err := fillRect(dc, 0, 0, w, h, gg.Solid(pal[0])); err != nil {
		return err
	}

	balls := max(3, int(math.Round(5*p.Density)))
	radius := math.Min(w, h) * 0.3
	return withView(dc, p, func() error {
		var errs []error
		for i := range balls {
			k := float64(i + 1)
			cx := w * (0.5 + 0.35*math.Sin(at*0.6*k+k))
			cy := h * (0.5 + 0.35*math.Cos(at*0.4*k+2*k))
			core := pal[1].Lerp(pal[2], float64(i)/float64(balls-1))
			core.A = p.Strength
			edge := core
			edge.A = 0

			b := gg.NewRadialGradientBrush(cx, cy, 0, radius).
				AddColorStop(0, core).
				AddColorStop(1, edge)
			dc.SetFillBrush(b)
			dc.DrawCircle(cx, cy, radius)
			errs = append(errs, dc.Fill())
		}
		return errors.Join(errs...)
	})
}
