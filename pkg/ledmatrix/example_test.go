package ledmatrix_test

import (
	"fmt"
	"image/color"

	"github.com/fkcurrie/matrixportal-golang/pkg/ledmatrix"
)

func Example() {
	matrix, err := ledmatrix.NewFramebuffer(64, 32)
	if err != nil {
		fmt.Printf("Failed to create matrix: %v\n", err)
		return
	}
	defer matrix.Close()

	colors := []color.Color{
		color.RGBA{255, 0, 0, 255},   // Red
		color.RGBA{0, 255, 0, 255},   // Green
		color.RGBA{0, 0, 255, 255},   // Blue
		color.RGBA{255, 255, 0, 255}, // Yellow
	}
	for i, c := range colors {
		if err := matrix.SetPixel(i, 0, c); err != nil {
			fmt.Printf("Failed to set pixel: %v\n", err)
			return
		}
	}

	if err := matrix.Show(); err != nil {
		fmt.Printf("Failed to show matrix: %v\n", err)
		return
	}

	fmt.Println(matrix.Frame().RGBAAt(3, 0))
	// Output: {255 255 0 255}
}

func ExampleFramebuffer_Scroll() {
	matrix, err := ledmatrix.NewFramebuffer(8, 1)
	if err != nil {
		fmt.Printf("Failed to create matrix: %v\n", err)
		return
	}

	_ = matrix.SetPixel(0, 0, color.RGBA{255, 0, 0, 255})
	_ = matrix.Scroll(1, 0)
	_ = matrix.Show()

	r, _, _, _ := matrix.GetPixelColor(7, 0)
	fmt.Println(r)
	// Output: 255
}
