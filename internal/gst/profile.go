package gst

import (
	"fmt"
	"slices"
	"sort"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// RatePosition is where the BCK rate byte sits relative to the track weights.
type RatePosition int

const (
	RateBeforeWeights RatePosition = iota
	RateAfterWeights
)

// FirstPacketPolicy controls which bits the first packet of a session forces.
type FirstPacketPolicy int

const (
	// FirstPacketNone relies on readers defaulting absent fields to zero.
	FirstPacketNone FirstPacketPolicy = iota
	// FirstPacketTrackWeights always sends all four track weights first.
	FirstPacketTrackWeights
)

// Profile captures everything that differs between GST format versions.
type Profile struct {
	Name string

	// BckFrameWidth is 1 (int8) or 2 (int16 big-endian).
	BckFrameWidth int
	RatePosition  RatePosition
	// FloatPosition enables the PositionFloat field.
	FloatPosition bool
	FirstPacket   FirstPacketPolicy
	WeightShift   int

	// HashedActions lists the ghost types identified by action hash instead of name.
	HashedActions []core.GhostType
}

// ProfileV1 is the older layout: wide BCK frames, rate after the weights,
// float position support, and self-describing first packets.
var ProfileV1 = Profile{
	Name:          "v1",
	BckFrameWidth: 2,
	RatePosition:  RateAfterWeights,
	FloatPosition: true,
	FirstPacket:   FirstPacketTrackWeights,
	WeightShift:   3,
}

// ProfileV2 is the layout read by Super Mario Galaxy 2.
var ProfileV2 = Profile{
	Name:          "v2",
	BckFrameWidth: 1,
	RatePosition:  RateBeforeWeights,
	FloatPosition: false,
	FirstPacket:   FirstPacketNone,
	WeightShift:   7,
	HashedActions: []core.GhostType{core.GhostTypeAttackGhost},
}

// DefaultProfile is used when no format is configured.
var DefaultProfile = ProfileV2

var profiles = map[string]Profile{
	ProfileV1.Name: ProfileV1,
	ProfileV2.Name: ProfileV2,
}

// LookupProfile returns the profile registered under name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown GST format %q (known: %v)", name, ProfileNames())
	}
	return p, nil
}

// ProfileNames returns the registered profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UsesActionHash reports whether ghosts of type t carry an action hash.
func (p Profile) UsesActionHash(t core.GhostType) bool {
	return slices.Contains(p.HashedActions, t)
}
