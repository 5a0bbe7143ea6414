package netlist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// Instance is a named use of a cell with parameter overrides.
type Instance struct {
	Component string         `yaml:"component" toml:"component" json:"component"`
	Settings  map[string]any `yaml:"settings,omitempty" toml:"settings,omitempty" json:"settings,omitempty"`
}

// Placement positions an instance. Mirror and rotation apply first, about
// the instance origin. The instance origin (or Port, when set) then moves
// to (X, Y); the optional edge constraints follow, and DX/DY last.
type Placement struct {
	X        float64  `yaml:"x,omitempty" toml:"x,omitempty" json:"x,omitempty"`
	Y        float64  `yaml:"y,omitempty" toml:"y,omitempty" json:"y,omitempty"`
	XMin     *float64 `yaml:"xmin,omitempty" toml:"xmin,omitempty" json:"xmin,omitempty"`
	YMin     *float64 `yaml:"ymin,omitempty" toml:"ymin,omitempty" json:"ymin,omitempty"`
	XMax     *float64 `yaml:"xmax,omitempty" toml:"xmax,omitempty" json:"xmax,omitempty"`
	YMax     *float64 `yaml:"ymax,omitempty" toml:"ymax,omitempty" json:"ymax,omitempty"`
	DX       float64  `yaml:"dx,omitempty" toml:"dx,omitempty" json:"dx,omitempty"`
	DY       float64  `yaml:"dy,omitempty" toml:"dy,omitempty" json:"dy,omitempty"`
	Port     string   `yaml:"port,omitempty" toml:"port,omitempty" json:"port,omitempty"`
	Rotation float64  `yaml:"rotation,omitempty" toml:"rotation,omitempty" json:"rotation,omitempty"`
	Mirror   bool     `yaml:"mirror,omitempty" toml:"mirror,omitempty" json:"mirror,omitempty"`
}

// Routing strategies for a [Bundle].
const (
	StrategyBundle    = "route_bundle"
	StrategySingle    = "route_single"
	StrategyWaypoints = "route_waypoints"
)

// Bundle is a group of routed links, "inst,port" to "inst,port", sharing
// router settings.
type Bundle struct {
	Links           map[string]string `yaml:"links" toml:"links" json:"links"`
	Settings        map[string]any    `yaml:"settings,omitempty" toml:"settings,omitempty" json:"settings,omitempty"`
	RoutingStrategy string            `yaml:"routing_strategy,omitempty" toml:"routing_strategy,omitempty" json:"routing_strategy,omitempty"`
}

// Netlist describes a component by its instances and how they are placed,
// connected, routed and exposed.
type Netlist struct {
	Name        string               `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	PDK         string               `yaml:"pdk,omitempty" toml:"pdk,omitempty" json:"pdk,omitempty"`
	Instances   map[string]Instance  `yaml:"instances" toml:"instances" json:"instances"`
	Placements  map[string]Placement `yaml:"placements,omitempty" toml:"placements,omitempty" json:"placements,omitempty"`
	Connections map[string]string    `yaml:"connections,omitempty" toml:"connections,omitempty" json:"connections,omitempty"`
	Routes      map[string]Bundle    `yaml:"routes,omitempty" toml:"routes,omitempty" json:"routes,omitempty"`
	Ports       map[string]string    `yaml:"ports,omitempty" toml:"ports,omitempty" json:"ports,omitempty"`
	Info        map[string]any       `yaml:"info,omitempty" toml:"info,omitempty" json:"info,omitempty"`
}

// DefaultName names netlists that do not name themselves.
const DefaultName = "netlist"

func (n *Netlist) cellName() string {
	if n.Name == "" {
		return DefaultName
	}
	return n.Name
}

// Endpoint is an instance port reference.
type Endpoint struct {
	Instance string
	Port     string
}

func (e Endpoint) String() string { return e.Instance + "," + e.Port }

// ParseEndpoint splits "inst,port".
func ParseEndpoint(s string) (Endpoint, error) {
	inst, port, ok := strings.Cut(s, ",")
	inst, port = strings.TrimSpace(inst), strings.TrimSpace(port)
	if !ok || inst == "" || port == "" {
		return Endpoint{}, errors.New(errors.ErrCodeInvalidNetlist, "endpoint %q must be \"instance,port\"", s)
	}
	return Endpoint{Instance: inst, Port: port}, nil
}

// Validate checks that every reference names a declared instance, that
// every instance is positioned at most once, and that route strategies are
// known.
func (n *Netlist) Validate() error {
	if n.Name != "" {
		if err := errors.ValidateCellName(n.Name); err != nil {
			return err
		}
	}
	if len(n.Instances) == 0 {
		return errors.New(errors.ErrCodeInvalidNetlist, "netlist %s has no instances", n.cellName())
	}
	for _, name := range sortedKeys(n.Instances) {
		if n.Instances[name].Component == "" {
			return errors.New(errors.ErrCodeInvalidNetlist, "instance %s has no component", name)
		}
	}
	for _, name := range sortedKeys(n.Placements) {
		if _, ok := n.Instances[name]; !ok {
			return errors.New(errors.ErrCodeInvalidNetlist, "placement for unknown instance %s", name)
		}
	}

	moved := make(map[string]string)
	for _, src := range sortedKeys(n.Connections) {
		a, err := n.endpoint(src)
		if err != nil {
			return err
		}
		b, err := n.endpoint(n.Connections[src])
		if err != nil {
			return err
		}
		if a.Instance == b.Instance {
			return errors.New(errors.ErrCodeInvalidNetlist, "connection %s -> %s joins an instance to itself", a, b)
		}
		if prev, dup := moved[a.Instance]; dup {
			return errors.New(errors.ErrCodeInvalidNetlist,
				"instance %s is positioned by two connections (%s and %s)", a.Instance, prev, a)
		}
		if _, placed := n.Placements[a.Instance]; placed {
			return errors.New(errors.ErrCodeInvalidNetlist,
				"instance %s has a placement and is positioned by connection %s", a.Instance, a)
		}
		moved[a.Instance] = a.String()
	}

	for _, name := range sortedKeys(n.Routes) {
		r := n.Routes[name]
		if len(r.Links) == 0 {
			return errors.New(errors.ErrCodeInvalidNetlist, "route %s has no links", name)
		}
		switch r.RoutingStrategy {
		case "", StrategyBundle, StrategySingle:
		case StrategyWaypoints:
			if len(r.Links) != 1 {
				return errors.New(errors.ErrCodeInvalidNetlist, "route %s: %s takes exactly one link", name, StrategyWaypoints)
			}
		default:
			return errors.New(errors.ErrCodeInvalidNetlist, "route %s: unknown routing strategy %q", name, r.RoutingStrategy)
		}
		for _, k := range sortedKeys(r.Links) {
			if _, err := n.endpoint(k); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "route %s", name)
			}
			if _, err := n.endpoint(r.Links[k]); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "route %s", name)
			}
		}
	}

	for _, name := range sortedKeys(n.Ports) {
		if err := errors.ValidatePortName(name); err != nil {
			return err
		}
		if _, err := n.endpoint(n.Ports[name]); err != nil {
			return err
		}
	}
	return nil
}

func (n *Netlist) endpoint(s string) (Endpoint, error) {
	e, err := ParseEndpoint(s)
	if err != nil {
		return Endpoint{}, err
	}
	if _, ok := n.Instances[e.Instance]; !ok {
		return Endpoint{}, errors.New(errors.ErrCodeInvalidNetlist, "%s refers to unknown instance %s", s, e.Instance)
	}
	return e, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Net is a single routed link added through a [Schematic].
type Net struct {
	From, To string
	Name     string
	Settings map[string]any
}

// Schematic assembles a netlist programmatically.
type Schematic struct {
	Netlist Netlist
	Nets    []Net

	routes int
}

// NewSchematic returns an empty schematic for a netlist called name.
func NewSchematic(name string) *Schematic {
	return &Schematic{Netlist: Netlist{Name: name}}
}

// AddInstance declares an instance, optionally placing it.
func (s *Schematic) AddInstance(name string, inst Instance, placement *Placement) {
	if s.Netlist.Instances == nil {
		s.Netlist.Instances = make(map[string]Instance)
	}
	s.Netlist.Instances[name] = inst
	if placement != nil {
		s.AddPlacement(name, *placement)
	}
}

// AddPlacement places an instance.
func (s *Schematic) AddPlacement(name string, p Placement) {
	if s.Netlist.Placements == nil {
		s.Netlist.Placements = make(map[string]Placement)
	}
	s.Netlist.Placements[name] = p
}

// AddConnection abuts instance port from onto to; from's instance moves.
func (s *Schematic) AddConnection(from, to string) {
	if s.Netlist.Connections == nil {
		s.Netlist.Connections = make(map[string]string)
	}
	s.Netlist.Connections[from] = to
}

// AddNet adds a routed link. Nets without a name get their own route;
// nets sharing a name are routed as one bundle.
func (s *Schematic) AddNet(net Net) {
	if net.Name == "" {
		net.Name = fmt.Sprintf("route_%d", s.routes)
		s.routes++
	}
	s.Nets = append(s.Nets, net)
	if s.Netlist.Routes == nil {
		s.Netlist.Routes = make(map[string]Bundle)
	}
	b, ok := s.Netlist.Routes[net.Name]
	if !ok {
		b = Bundle{Links: make(map[string]string), Settings: net.Settings}
	}
	b.Links[net.From] = net.To
	s.Netlist.Routes[net.Name] = b
}

// AddPort exposes an instance port under name.
func (s *Schematic) AddPort(name, endpoint string) {
	if s.Netlist.Ports == nil {
		s.Netlist.Ports = make(map[string]string)
	}
	s.Netlist.Ports[name] = endpoint
}
