package detection

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
)

const (
	quadMaxSide       = 600
	quadMinAreaRatio  = 0.20
	quadFrameMargin   = 0.02
	quadEdgeSupport   = 0.60
	quadSupportRadius = 3
	minContourSize    = 10
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Quad is a document boundary, corners in clockwise order starting at the
// top-left.
type Quad struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// Corners returns the corners in clockwise order from the top-left.
func (q Quad) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Area returns the quad's area by the shoelace formula.
func (q Quad) Area() float64 {
	c := q.Corners()
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += float64(c[i].X*c[j].Y - c[j].X*c[i].Y)
	}
	return math.Abs(sum) / 2
}

// Convex reports whether the corners form a convex polygon.
func (q Quad) Convex() bool {
	c := q.Corners()
	sign := 0
	for i := 0; i < 4; i++ {
		a, b, d := c[i], c[(i+1)%4], c[(i+2)%4]
		cross := (b.X-a.X)*(d.Y-b.Y) - (b.Y-a.Y)*(d.X-b.X)
		if cross == 0 {
			return false
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// FindDocumentQuad looks for the boundary of a page photographed against a
// contrasting background. ok is false when no reliable quad exists.
//
// # Algorithm
//
//  1. Downscale so the longest side is at most 600 pixels
//  2. Canny edges (50/150), grouped into 8-connected contours
//  3. Take the contour with the largest bounding box
//  4. Fit corners by extremes: top-left minimises x+y, bottom-right
//     maximises it, top-right maximises x-y, bottom-left minimises it
//  5. Reject the fit unless it is convex, covers at least 20% of the
//     image, is not simply the image frame (all corners within 2% of the
//     frame corners), and at least 60% of points sampled along its sides
//     lie within 3 pixels of an edge
func FindDocumentQuad(img image.Image) (Quad, bool) {
	b := img.Bounds()
	small := image.Image(img)
	scale := 1.0
	if b.Dx() > quadMaxSide || b.Dy() > quadMaxSide {
		small = imaging.Fit(img, quadMaxSide, quadMaxSide, imaging.Linear)
		scale = float64(b.Dx()) / float64(small.Bounds().Dx())
	}

	edges := imgutil.Canny(small, 50, 150)
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	if w < 8 || h < 8 {
		return Quad{}, false
	}

	contours := findContours(edges)
	var largest []Point
	largestArea := 0
	for _, c := range contours {
		minX, minY, maxX, maxY := contourBounds(c)
		if area := (maxX - minX) * (maxY - minY); area > largestArea {
			largest, largestArea = c, area
		}
	}
	if largest == nil {
		return Quad{}, false
	}

	q := extremeCorners(largest)
	if !q.Convex() || q.Area() < quadMinAreaRatio*float64(w*h) {
		return Quad{}, false
	}
	if isFrame(q, w, h) {
		return Quad{}, false
	}
	if edgeSupport(q, edges) < quadEdgeSupport {
		return Quad{}, false
	}

	return q.scaled(scale, b.Min), true
}

func (q Quad) scaled(s float64, origin image.Point) Quad {
	m := func(p Point) Point {
		return Point{
			X: int(math.Round(float64(p.X)*s)) + origin.X,
			Y: int(math.Round(float64(p.Y)*s)) + origin.Y,
		}
	}
	return Quad{m(q.TopLeft), m(q.TopRight), m(q.BottomRight), m(q.BottomLeft)}
}

func extremeCorners(contour []Point) Quad {
	q := Quad{contour[0], contour[0], contour[0], contour[0]}
	for _, p := range contour[1:] {
		if p.X+p.Y < q.TopLeft.X+q.TopLeft.Y {
			q.TopLeft = p
		}
		if p.X+p.Y > q.BottomRight.X+q.BottomRight.Y {
			q.BottomRight = p
		}
		if p.X-p.Y > q.TopRight.X-q.TopRight.Y {
			q.TopRight = p
		}
		if p.X-p.Y < q.BottomLeft.X-q.BottomLeft.Y {
			q.BottomLeft = p
		}
	}
	return q
}

func isFrame(q Quad, w, h int) bool {
	mx := int(math.Ceil(quadFrameMargin * float64(w)))
	my := int(math.Ceil(quadFrameMargin * float64(h)))
	near := func(p, target Point) bool {
		return absInt(p.X-target.X) <= mx && absInt(p.Y-target.Y) <= my
	}
	return near(q.TopLeft, Point{0, 0}) &&
		near(q.TopRight, Point{w - 1, 0}) &&
		near(q.BottomRight, Point{w - 1, h - 1}) &&
		near(q.BottomLeft, Point{0, h - 1})
}

// edgeSupport samples points along the quad's sides and returns the
// fraction that have an edge pixel nearby.
func edgeSupport(q Quad, edges *image.Gray) float64 {
	const samplesPerSide = 50
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	c := q.Corners()
	hits, total := 0, 0
	for i := 0; i < 4; i++ {
		a, b := c[i], c[(i+1)%4]
		for s := 0; s < samplesPerSide; s++ {
			t := float64(s) / samplesPerSide
			x := int(math.Round(float64(a.X) + t*float64(b.X-a.X)))
			y := int(math.Round(float64(a.Y) + t*float64(b.Y-a.Y)))
			total++
			if hasEdgeNear(edges, x, y, w, h) {
				hits++
			}
		}
	}
	return float64(hits) / float64(total)
}

func hasEdgeNear(edges *image.Gray, x, y, w, h int) bool {
	for dy := -quadSupportRadius; dy <= quadSupportRadius; dy++ {
		for dx := -quadSupportRadius; dx <= quadSupportRadius; dx++ {
			px, py := x+dx, y+dy
			if px >= 0 && py >= 0 && px < w && py < h && edges.Pix[py*edges.Stride+px] != 0 {
				return true
			}
		}
	}
	return false
}

// findContours groups the pixels of a binary edge map into 8-connected
// components. Components smaller than minContourSize pixels are dropped.
func findContours(edges *image.Gray) [][]Point {
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	visited := make([]bool, w*h)
	contours := make([][]Point, 0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if edges.Pix[y*edges.Stride+x] != 0 && !visited[i] {
				contour := floodFill(edges, visited, x, y)
				if len(contour) >= minContourSize {
					contours = append(contours, contour)
				}
			}
		}
	}
	return contours
}

// floodFill collects the component containing (startX, startY) with an
// explicit stack so large contours cannot overflow the goroutine stack.
func floodFill(edges *image.Gray, visited []bool, startX, startY int) []Point {
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	var contour []Point
	stack := []Point{{X: startX, Y: startY}}
	visited[startY*w+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				n := ny*w + nx
				if !visited[n] && edges.Pix[ny*edges.Stride+nx] != 0 {
					visited[n] = true
					stack = append(stack, Point{X: nx, Y: ny})
				}
			}
		}
	}
	return contour
}

func contourBounds(c []Point) (minX, minY, maxX, maxY int) {
	minX, minY = c[0].X, c[0].Y
	maxX, maxY = minX, minY
	for _, p := range c[1:] {
		minX, maxX = minInt(minX, p.X), maxInt(maxX, p.X)
		minY, maxY = minInt(minY, p.Y), maxInt(maxY, p.Y)
	}
	return
}
