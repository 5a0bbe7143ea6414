// Package route joins ports with Manhattan waveguide routes built from
// library cells.
//
// Every router works in the local frame of the start port, where the route
// leaves along +x. A route is a skeleton of straight legs joined by 90
// degree turns; [Single] enumerates skeletons with up to four bends and
// keeps the one with the fewest bends, then the shortest length. Each leg
// must be long enough for the bends at its ends (one radius per bend) and
// for any tapers. Extra length goes where [Options.Slack] says.
//
//	r, err := route.Single(lib, mmi.MustPort("o2"), arm.MustPort("o1"), route.Options{})
//	if err != nil {
//		return err
//	}
//	b.AddRoute(r)
//
// [FromWaypoints] follows caller-supplied corners and [Bundle] routes many
// ports at once, keeping neighbouring routes a pitch apart. All routers
// return references detached from any builder.
//
// Bends come from the library, so a route is only as tight as its bend
// cell: an Euler bend at radius R has a smaller minimum radius of
// curvature than R, and a route is rejected when that falls below the
// cross-section's minimum.
package route
