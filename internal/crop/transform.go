package crop

import "math"

// PDF user space is 72 points per inch.
const pointsPerInch = 72.0

// RasterSize returns the rendered image size in pixels for a page of the given
// point dimensions at dpi.
func RasterSize(pageWPt, pageHPt float64, dpi int) (w, h int) {
	scale := float64(dpi) / pointsPerInch
	return int(math.Round(pageWPt * scale)), int(math.Round(pageHPt * scale))
}

// ToPixels resolves a percent region against an already-rendered raster.
func (p Percent) ToPixels(renderW, renderH int) Rect {
	return Rect{
		X: int(math.Round(p.X * float64(renderW))),
		Y: int(math.Round(p.Y * float64(renderH))),
		W: int(math.Round(p.W * float64(renderW))),
		H: int(math.Round(p.H * float64(renderH))),
	}
}

// ToPixels renders the page at dpi and maps the point coordinates onto it.
func (p Points) ToPixels(dpi int) Rect {
	imgW, imgH := RasterSize(p.PageW, p.PageH, dpi)
	return Rect{
		X: int(math.Round(p.X / p.PageW * float64(imgW))),
		Y: int(math.Round(p.Y / p.PageH * float64(imgH))),
		W: int(math.Round(p.W / p.PageW * float64(imgW))),
		H: int(math.Round(p.H / p.PageH * float64(imgH))),
	}
}

// ToPercent converts a points region to the legacy percentage form.
func (p Points) ToPercent() Percent {
	return Percent{
		X: p.X / p.PageW,
		Y: p.Y / p.PageH,
		W: p.W / p.PageW,
		H: p.H / p.PageH,
	}
}

// Expand grows a region by the fixed retry pad on all sides, clamped to the
// page bounds. The form is preserved.
func Expand(r Region) Region {
	switch v := r.(type) {
	case Percent:
		return Percent{
			X: clamp(v.X-PadPercent, 0, 1),
			Y: clamp(v.Y-PadPercent, 0, 1),
			W: clampSpan(v.X-PadPercent, v.W+2*PadPercent, 1),
			H: clampSpan(v.Y-PadPercent, v.H+2*PadPercent, 1),
		}
	case Points:
		return Points{
			X:     clamp(v.X-PadPoints, 0, v.PageW),
			Y:     clamp(v.Y-PadPoints, 0, v.PageH),
			W:     clampSpan(v.X-PadPoints, v.W+2*PadPoints, v.PageW),
			H:     clampSpan(v.Y-PadPoints, v.H+2*PadPoints, v.PageH),
			PageW: v.PageW,
			PageH: v.PageH,
		}
	default:
		return r
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampSpan clamps a span starting at origin so origin+span stays within max.
func clampSpan(origin, span, max float64) float64 {
	start := clamp(origin, 0, max)
	if start+span > max {
		return max - start
	}
	return span
}
