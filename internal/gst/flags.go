package gst

import (
	"fmt"
	"strings"
)

// Flag is a bit in the 16-bit field-presence mask prefixed to every packet.
type Flag uint16

// Bit assignments are part of the file format.
const (
	FlagPositionInt   Flag = 0x0001
	FlagRotationX     Flag = 0x0002
	FlagRotationY     Flag = 0x0004
	FlagRotationZ     Flag = 0x0008
	FlagActionName    Flag = 0x0010
	FlagBckFrame      Flag = 0x0020
	FlagTrackWeight0  Flag = 0x0040
	FlagTrackWeight1  Flag = 0x0080
	FlagTrackWeight2  Flag = 0x0100
	FlagTrackWeight3  Flag = 0x0200
	FlagScale         Flag = 0x0400
	FlagVelocity      Flag = 0x0800
	FlagBckRate       Flag = 0x1000
	FlagActionHash    Flag = 0x2000
	FlagPositionFloat Flag = 0x4000

	FlagTrackWeights = FlagTrackWeight0 | FlagTrackWeight1 | FlagTrackWeight2 | FlagTrackWeight3
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagPositionInt, "PositionInt"},
	{FlagRotationX, "RotationX"},
	{FlagRotationY, "RotationY"},
	{FlagRotationZ, "RotationZ"},
	{FlagActionName, "ActionName"},
	{FlagBckFrame, "BckFrame"},
	{FlagTrackWeight0, "TrackWeight0"},
	{FlagTrackWeight1, "TrackWeight1"},
	{FlagTrackWeight2, "TrackWeight2"},
	{FlagTrackWeight3, "TrackWeight3"},
	{FlagScale, "Scale"},
	{FlagVelocity, "Velocity"},
	{FlagBckRate, "BckRate"},
	{FlagActionHash, "ActionHash"},
	{FlagPositionFloat, "PositionFloat"},
}

// Has reports whether every bit of o is set in f.
func (f Flag) Has(o Flag) bool {
	return f&o == o
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	parts := f.Names()
	if rest := f &^ knownFlags(); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%04X", uint16(rest)))
	}
	return strings.Join(parts, "|")
}

// Names lists the names of the known bits set in f, in bit order.
func (f Flag) Names() []string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

func knownFlags() Flag {
	var all Flag
	for _, fn := range flagNames {
		all |= fn.flag
	}
	return all
}
