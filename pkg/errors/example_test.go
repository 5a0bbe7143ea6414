package errors_test

import (
	"fmt"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

func ExampleIs() {
	cause := errors.Routing("no path from %s to %s", "mmi,o2", "pad,e1")
	err := errors.Wrap(errors.ErrCodeInvalidNetlist, cause, "build %s", "mzi")

	fmt.Println(errors.GetCode(err))
	fmt.Println(errors.Is(err, errors.ErrCodeRouting))
	fmt.Println(errors.UserMessage(err))
	fmt.Println(err)
	// Output:
	// INVALID_NETLIST
	// true
	// build mzi
	// INVALID_NETLIST: build mzi: ROUTING_ERROR: no path from mmi,o2 to pad,e1
}
