package imaging

import (
	"image"
	"math"
)

// Canny runs Canny edge detection on the luminance of img and returns a
// binary edge map anchored at (0,0): 255 marks an edge, 0 background.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Gradients below this (0-255 scale) are discarded.
//   - thresholdHigh: Gradients at or above this are strong edges.
//     Gradients between the two are kept only when connected to a strong
//     edge through other kept pixels.
//
// # Algorithm
//
//  1. Luminance plane (BT.601) normalised to 0-1
//  2. 5x5 Gaussian blur (sigma ≈ 1.4)
//  3. Sobel gradients, magnitude and direction
//  4. Non-maximum suppression along the quantised gradient direction
//  5. Hysteresis: flood from strong edges through weak ones (8-connected)
//
// Typical thresholds for scanned pages are 50/150.
func Canny(img image.Image, thresholdLow, thresholdHigh int) *image.Gray {
	plane := LuminancePlane(img)
	w, h := plane.Rect.Dx(), plane.Rect.Dy()

	gray := make([]float64, w*h)
	for i, v := range plane.Pix[:w*h] {
		gray[i] = float64(v) / 255.0
	}

	mag, dir := sobel(gaussianBlur(gray, w, h), w, h)
	thin := suppressNonMaxima(mag, dir, w, h)

	out := image.NewGray(image.Rect(0, 0, w, h))
	low := float64(thresholdLow) / 255.0
	high := float64(thresholdHigh) / 255.0

	stack := make([]int, 0, 256)
	for i, v := range thin {
		if v >= high && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := ny*w + nx
					if out.Pix[n] == 0 && thin[n] >= low {
						out.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return out
}

// SobelMagnitude returns the Sobel gradient magnitude of a luminance plane
// on the 0-255 scale, one value per pixel, without prior smoothing.
func SobelMagnitude(plane *image.Gray) []float64 {
	w, h := plane.Rect.Dx(), plane.Rect.Dy()
	data := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x, v := range plane.Pix[y*plane.Stride : y*plane.Stride+w] {
			data[y*w+x] = float64(v)
		}
	}
	mag, _ := sobel(data, w, h)
	return mag
}

// EdgeDensity returns the fraction of edge pixels in an edge map.
func EdgeDensity(edges *image.Gray) float64 {
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	n := 0
	for y := 0; y < h; y++ {
		for _, v := range edges.Pix[y*edges.Stride : y*edges.Stride+w] {
			if v != 0 {
				n++
			}
		}
	}
	return float64(n) / float64(w*h)
}

func sobel(data []float64, w, h int) (mag, dir []float64) {
	mag = make([]float64, w*h)
	dir = make([]float64, w*h)
	at := func(x, y int) float64 {
		return data[clamp(y, 0, h-1)*w+clamp(x, 0, w-1)]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			mag[y*w+x] = math.Hypot(gx, gy)
			dir[y*w+x] = math.Atan2(gy, gx)
		}
	}
	return mag, dir
}

// suppressNonMaxima keeps a gradient only where it is a local maximum
// across the edge. Border pixels are always suppressed.
func suppressNonMaxima(mag, dir []float64, w, h int) []float64 {
	out := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			angle := dir[i]
			if angle < 0 {
				angle += math.Pi
			}

			var n1, n2 float64
			switch {
			case angle < math.Pi/8 || angle >= 7*math.Pi/8:
				n1, n2 = mag[i-1], mag[i+1]
			case angle < 3*math.Pi/8:
				n1, n2 = mag[i-w-1], mag[i+w+1]
			case angle < 5*math.Pi/8:
				n1, n2 = mag[i-w], mag[i+w]
			default:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			}

			if mag[i] >= n1 && mag[i] >= n2 {
				out[i] = mag[i]
			}
		}
	}
	return out
}

// gaussianBlur applies the 5x5 kernel below (sum 273) with replicated
// borders.
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
func gaussianBlur(data []float64, w, h int) []float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				row := clamp(y+ky, 0, h-1) * w
				for kx := -2; kx <= 2; kx++ {
					sum += data[row+clamp(x+kx, 0, w-1)] * kernel[ky+2][kx+2]
				}
			}
			out[y*w+x] = sum / kernelSum
		}
	}
	return out
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
