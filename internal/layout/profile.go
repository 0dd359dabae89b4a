package layout

import (
	"fmt"

	"github.com/starford/linkgraph/internal/graph"
)

// Profile names a bundle of force parameters.
type Profile string

// Available profiles.
const (
	ProfileDefault   Profile = "default"
	ProfileAlternate Profile = "alternate"
)

// ParseProfile accepts the profile names used in configuration. "dense" is
// an alias for the alternate profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "", string(ProfileDefault):
		return ProfileDefault, nil
	case string(ProfileAlternate), "dense":
		return ProfileAlternate, nil
	}
	return "", fmt.Errorf("layout: unknown profile %q", s)
}

// Settings are the user-adjustable inputs of the simulation.
type Settings struct {
	Profile  Profile `json:"profile" yaml:"profile"`
	Gravity  float64 `json:"gravity" yaml:"gravity"`
	ShowTags bool    `json:"show_tags" yaml:"show_tags"`
}

// Params is the resolved force configuration for one profile and settings pair.
type Params struct {
	LinkDistance float64
	// LinkStrength of 0 selects the per-link default 1/min(count(src), count(dst)).
	LinkStrength float64

	// Many-body strength per node is ChargePerMass*mass + ChargeFlat.
	ChargePerMass float64
	ChargeFlat    float64
	Theta         float64

	CenterStrength float64

	// Radial ring radius is RadialFactor * min(width, height).
	RadialFactor   float64
	RadialStrength float64

	CollideTagRadius  float64
	CollideMassFactor float64
	CollideBase       float64
	CollideIterations int
	CollideStrength   float64

	VelocityDecay float64

	MassGravity       bool
	MassGravityFactor float64
	Gravity           float64
}

// ParamsFor resolves the force parameters for s.
func ParamsFor(s Settings) Params {
	if s.Profile == ProfileAlternate {
		return Params{
			LinkDistance:      30,
			LinkStrength:      1,
			ChargeFlat:        -100,
			Theta:             0.9,
			CenterStrength:    0.1,
			RadialFactor:      0.33,
			RadialStrength:    0.02,
			CollideBase:       5,
			CollideIterations: 2,
			CollideStrength:   1,
			VelocityDecay:     0.3,
			Gravity:           s.Gravity,
		}
	}

	distance := 50.0
	if s.ShowTags {
		distance = 80
	}
	return Params{
		LinkDistance:      distance,
		ChargePerMass:     -30,
		Theta:             0.9,
		CenterStrength:    0.05 * s.Gravity,
		RadialFactor:      0.4,
		RadialStrength:    0.05,
		CollideTagRadius:  20,
		CollideMassFactor: 5,
		CollideBase:       5,
		CollideIterations: 1,
		CollideStrength:   1,
		VelocityDecay:     0.6,
		MassGravity:       true,
		MassGravityFactor: 0.05,
		Gravity:           s.Gravity,
	}
}

// charge returns the many-body strength of n.
func (p Params) charge(n *graph.Node) float64 {
	return p.ChargePerMass*n.Mass + p.ChargeFlat
}

// collideRadius returns the collision radius of n.
func (p Params) collideRadius(n *graph.Node) float64 {
	if n.IsTag() && p.CollideTagRadius > 0 {
		return p.CollideTagRadius
	}
	return n.Mass*p.CollideMassFactor + p.CollideBase
}
