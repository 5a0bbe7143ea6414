package route_test

import (
	"fmt"

	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/route"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

func ExampleSingle() {
	lib := cells.NewLibrary(nil)
	a := component.NewPort("a", geometry.Pt(0, 0), 0, 0.5, tech.L(1, 0))
	b := component.NewPort("b", geometry.Pt(10, 10), 180, 0.5, tech.L(1, 0))

	r, err := route.Single(lib, a, b, route.Options{Radius: 5, Bend: "bend_circular"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("bends:", r.NumBends)
	fmt.Printf("length: %.3f\n", r.Length)
	fmt.Println("corners:", len(r.Waypoints)-2)
	// Output:
	// bends: 2
	// length: 15.708
	// corners: 2
}
