package matrixportal_test

import (
	"fmt"
	"strings"

	"github.com/fkcurrie/matrixportal-golang/pkg/matrixportal"
)

func ExampleWrapNicely() {
	lines := matrixportal.WrapNicely("Adafruit Industries is in New York", 12)
	fmt.Println(strings.Join(lines, "|"))
	// Output: Adafruit|Industries|is in New|York
}

func ExampleParseColor() {
	c, _ := matrixportal.ParseColor("#2080ff")
	fmt.Println(c.R, c.G, c.B)
	// Output: 32 128 255
}

func ExampleMatrixPortal_SetText() {
	portal, err := matrixportal.New()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer portal.Close()

	idx, _ := portal.AddText(matrixportal.TextOptions{Color: "#ff0000", Position: matrixportal.Pt(2, 8)})
	portal.SetText("HELLO", idx)
	text, _ := portal.Text(idx)
	fmt.Println(text)
	// Output: HELLO
}
