package main

import (
	"fmt"
	"io"
	"os"

	"github.com/galaxygst/galaxygst/internal/geo"
	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/pkg/core"
)

func runInspect(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("inspect", stderr)
	format := fs.String("format", gst.DefaultProfile.Name, "GST format of the file")
	quiet := fs.BoolP("quiet", "q", false, "print only the summary")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, "expected exactly one GST file\n\n", usage)
		return exitUsage
	}
	profile, err := gst.LookupProfile(*format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer f.Close()

	if err := inspect(f, profile, stdout, *quiet); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// inspect decodes every frame of r, printing the state after each one and
// a summary of the path at the end.
func inspect(r io.Reader, profile gst.Profile, out io.Writer, quiet bool) error {
	sc := gst.NewScanner(r)
	dec := gst.NewDecoder(profile)

	var (
		frames uint32
		bytes  int
		floats bool
		points []core.Vec3f
	)
	for sc.Scan() {
		fr := sc.Frame()
		if err := dec.Apply(fr.Packet); err != nil {
			return fmt.Errorf("frame %d: %w", frames, err)
		}
		st := dec.State()
		if fr.Packet.Flags.Has(gst.FlagPositionFloat) {
			floats = true
		}
		pos := st.PositionFloat
		if !floats {
			pos = core.Vec3f{X: float32(st.Position.X), Y: float32(st.Position.Y), Z: float32(st.Position.Z)}
		}
		points = append(points, pos)

		if !quiet {
			action := st.ActionName
			if fr.Packet.Flags.Has(gst.FlagActionHash) || (action == "" && st.ActionHash != 0) {
				action = fmt.Sprintf("#%08x", st.ActionHash)
			}
			fmt.Fprintf(out, "%6d idx=%3d size=%3d pos=(%.1f, %.1f, %.1f) action=%s flags=%s\n",
				frames, fr.Index, fr.Size(), pos.X, pos.Y, pos.Z, action, fr.Packet.Flags)
		}
		frames++
		bytes += fr.Size()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("after %d frames: %w", frames, err)
	}

	path := geo.Summarize(points)
	fmt.Fprintf(out, "%d frames, %d bytes, %s, path length %.1f, climb %.1f\n",
		frames, bytes, core.ApproxDuration(frames), path.Length, path.Climb)
	return nil
}
