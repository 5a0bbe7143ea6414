package netlist

import (
	"encoding/json"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/route"
)

// Build assembles n into a locked component. Equal netlists share one
// cached component, named after the netlist and a hash of its content.
//
// Instances are resolved through the library, then placed, then
// positioned by connections in dependency order. Routes are drawn once
// every instance sits where it belongs; exported ports come last.
func Build(lib *pcell.Library, n *Netlist) (*component.Component, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	params, err := n.params()
	if err != nil {
		return nil, err
	}
	return lib.Assemble(n.cellName(), params, func(b *component.Builder) error {
		return assemble(b, lib, n)
	})
}

// params is the netlist as plain data, the input to its signature.
func (n *Netlist) params() (pcell.Params, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "encode netlist")
	}
	var p pcell.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode netlist")
	}
	return p, nil
}

func assemble(b *component.Builder, lib *pcell.Library, n *Netlist) error {
	refs := make(map[string]*component.Reference, len(n.Instances))
	for _, name := range sortedKeys(n.Instances) {
		inst := n.Instances[name]
		c, err := lib.Resolve(pcell.ByName{Name: inst.Component, Params: pcell.Params(inst.Settings)})
		if err != nil {
			return wrap(err, "instance %s", name)
		}
		refs[name] = b.AddRef(c, name)
	}

	for _, name := range sortedKeys(n.Placements) {
		if err := place(refs[name], n.Placements[name]); err != nil {
			return wrap(err, "place %s", name)
		}
	}

	if err := connect(refs, n.Connections); err != nil {
		return err
	}

	for _, name := range sortedKeys(n.Routes) {
		if err := drawRoutes(b, lib, refs, name, n.Routes[name]); err != nil {
			return err
		}
	}

	names := sortedKeys(n.Ports)
	ports := make([]component.Port, 0, len(names))
	for _, name := range names {
		p, err := lookup(refs, n.Ports[name])
		if err != nil {
			return err
		}
		ports = append(ports, p.Renamed(name))
	}
	component.SortPortsByName(ports)
	for _, p := range ports {
		if err := b.AddPort(p); err != nil {
			return err
		}
	}

	for k, v := range n.Info {
		b.SetInfo(k, v)
	}
	return nil
}

func place(ref *component.Reference, p Placement) error {
	if p.Mirror {
		ref.MirrorY()
	}
	if p.Rotation != 0 {
		ref.Rotate(p.Rotation)
	}
	if p.Port != "" {
		if err := ref.MovePort(p.Port, geometry.Pt(p.X, p.Y)); err != nil {
			return err
		}
	} else {
		ref.Move(p.X, p.Y)
	}
	if p.XMin != nil {
		ref.SetXMin(*p.XMin)
	}
	if p.XMax != nil {
		ref.SetXMax(*p.XMax)
	}
	if p.YMin != nil {
		ref.SetYMin(*p.YMin)
	}
	if p.YMax != nil {
		ref.SetYMax(*p.YMax)
	}
	ref.Move(p.DX, p.DY)
	return nil
}

// connect applies connections whose destination is already fixed until
// none are left. An instance is fixed when no connection moves it or once
// its own connection has been applied.
func connect(refs map[string]*component.Reference, conns map[string]string) error {
	moving := make(map[string]bool, len(conns))
	for src := range conns {
		e, _ := ParseEndpoint(src)
		moving[e.Instance] = true
	}
	pending := sortedKeys(conns)
	for len(pending) > 0 {
		var next []string
		for _, src := range pending {
			a, _ := ParseEndpoint(src)
			d, _ := ParseEndpoint(conns[src])
			if moving[d.Instance] {
				next = append(next, src)
				continue
			}
			dest, err := lookup(refs, conns[src])
			if err != nil {
				return err
			}
			if err := refs[a.Instance].Connect(a.Port, dest); err != nil {
				return wrap(err, "connect %s to %s", a, d)
			}
			moving[a.Instance] = false
		}
		if len(next) == len(pending) {
			return errors.New(errors.ErrCodeInvalidNetlist,
				"connections %v form a cycle; one instance in the cycle needs a placement instead", next)
		}
		pending = next
	}
	return nil
}

func drawRoutes(b *component.Builder, lib *pcell.Library, refs map[string]*component.Reference, name string, bundle Bundle) error {
	opts, waypoints, err := routeOptions(bundle.Settings)
	if err != nil {
		return wrap(err, "route %s", name)
	}
	keys := sortedKeys(bundle.Links)
	ports1 := make([]component.Port, len(keys))
	ports2 := make([]component.Port, len(keys))
	for i, k := range keys {
		if ports1[i], err = lookup(refs, k); err != nil {
			return err
		}
		if ports2[i], err = lookup(refs, bundle.Links[k]); err != nil {
			return err
		}
	}

	var routes []*route.Route
	switch bundle.RoutingStrategy {
	case "", StrategyBundle:
		routes, err = route.Bundle(lib, ports1, ports2, opts)
	case StrategySingle:
		for i := range ports1 {
			var r *route.Route
			if r, err = route.Single(lib, ports1[i], ports2[i], opts); err != nil {
				break
			}
			routes = append(routes, r)
		}
	case StrategyWaypoints:
		var r *route.Route
		if r, err = route.FromWaypoints(lib, ports1[0], ports2[0], waypoints, opts); err == nil {
			routes = []*route.Route{r}
		}
	}
	if err != nil {
		return wrap(err, "route %s", name)
	}
	for _, r := range routes {
		if err := b.AddRoute(r); err != nil {
			return err
		}
	}
	return nil
}

// routeOptions reads router settings. "waypoints" is a list of [x, y]
// pairs for the waypoint strategy.
func routeOptions(settings map[string]any) (route.Options, []geometry.Point, error) {
	p := pcell.Params(settings)
	var opts route.Options
	var waypoints []geometry.Point
	for _, k := range p.Keys() {
		var err error
		switch k {
		case "cross_section":
			opts.CrossSection = p[k]
		case "radius":
			opts.Radius, err = p.Float(k)
		case "bend":
			opts.Bend, err = p.String(k)
		case "straight":
			opts.Straight, err = p.String(k)
		case "with_sbend":
			opts.WithSBend, err = p.Bool(k)
		case "auto_taper":
			opts.AutoTaper, err = p.Bool(k)
		case "separation":
			opts.Separation, err = p.Float(k)
		case "sort_ports":
			opts.SortPorts, err = p.Bool(k)
		case "slack":
			opts.Slack, err = slack(p, k)
		case "waypoints":
			waypoints, err = points(p[k])
		default:
			err = errors.New(errors.ErrCodeInvalidParams, "unknown route setting %q", k)
		}
		if err != nil {
			return route.Options{}, nil, err
		}
	}
	return opts, waypoints, nil
}

func slack(p pcell.Params, key string) (route.Slack, error) {
	s, err := p.String(key)
	if err != nil {
		return 0, err
	}
	switch s {
	case "middle":
		return route.SlackMiddle, nil
	case "start":
		return route.SlackStart, nil
	case "end":
		return route.SlackEnd, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidParams, "slack must be start, middle or end, got %q", s)
}

func points(v any) ([]geometry.Point, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidParams, "waypoints must be a list of [x, y] pairs")
	}
	out := make([]geometry.Point, len(list))
	for i, item := range list {
		xy, err := pcell.Params{"p": item}.Floats("p")
		if err != nil || len(xy) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidParams, "waypoint %d must be an [x, y] pair", i)
		}
		out[i] = geometry.Pt(xy[0], xy[1])
	}
	return out, nil
}

func lookup(refs map[string]*component.Reference, s string) (component.Port, error) {
	e, err := ParseEndpoint(s)
	if err != nil {
		return component.Port{}, err
	}
	ref, ok := refs[e.Instance]
	if !ok {
		return component.Port{}, errors.New(errors.ErrCodeInvalidNetlist, "unknown instance %s", e.Instance)
	}
	return ref.Port(e.Port)
}

// wrap adds context while keeping the cause's code.
func wrap(err error, format string, args ...any) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInvalidNetlist
	}
	return errors.Wrap(code, err, format, args...)
}
