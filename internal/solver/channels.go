// Package solver drives the two external numerical programs: it renders
// their fixed-format text inputs, manages the child process lifecycle and
// parses the plain-text results. The programs themselves are black boxes;
// they exchange the layered-medium response through files in a directory
// handed to both (see gfdb.GFDir).
package solver

import "fmt"

// Output channel basenames of the response solver, one file per channel
// per elementary source type. The solver appends .ep/.ss/.ds/.cl for the
// explosion, strike-slip, dip-slip and CLVD sources.
var (
	PsGrnDisplNames   = [3]string{"uz", "ur", "ut"}
	PsGrnStressNames  = [6]string{"szz", "srr", "stt", "szr", "srt", "stz"}
	PsGrnTiltNames    = [3]string{"tr", "tt", "rot"}
	PsGrnGravityNames = [2]string{"gd", "gr"}
)

// Output channel names of the convolution solver in NED coordinates.
var (
	PsCmpDisplNames   = [3]string{"un", "ue", "ud"}
	PsCmpStressNames  = [6]string{"snn", "see", "sdd", "sne", "snd", "sed"}
	PsCmpTiltNames    = [3]string{"tn", "te", "rot"}
	PsCmpGravityNames = [2]string{"gd", "gr"}
)

// ChannelGroup selects a slice of the snapshot file columns.
type ChannelGroup string

const (
	GroupDispl   ChannelGroup = "displ"
	GroupStress  ChannelGroup = "stress"
	GroupTilt    ChannelGroup = "tilt"
	GroupGravity ChannelGroup = "gravity"
	GroupAll     ChannelGroup = "all"
)

type groupColumns struct {
	names      []string
	start, end int // column range in the snapshot files
}

// The snapshot files carry lat, lon, then the 14 observable columns; the
// downstream component enumeration relies on these positions.
var channelGroups = map[ChannelGroup]groupColumns{
	GroupDispl:   {PsCmpDisplNames[:], 2, 5},
	GroupStress:  {PsCmpStressNames[:], 5, 11},
	GroupTilt:    {PsCmpTiltNames[:], 11, 14},
	GroupGravity: {PsCmpGravityNames[:], 14, 16},
	GroupAll: {
		allNames(),
		2, 16,
	},
}

func allNames() []string {
	var names []string
	names = append(names, PsCmpDisplNames[:]...)
	names = append(names, PsCmpStressNames[:]...)
	names = append(names, PsCmpTiltNames[:]...)
	names = append(names, PsCmpGravityNames[:]...)
	return names
}

// GroupChannels returns the channel names of a group in column order.
func GroupChannels(g ChannelGroup) ([]string, error) {
	gc, ok := channelGroups[g]
	if !ok {
		return nil, fmt.Errorf("unknown channel group %q", g)
	}
	return gc.names, nil
}
