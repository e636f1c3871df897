package solver

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RawTrace is one physical channel at one receiver, assembled from the
// snapshot sequence of a convolution solver run. Samples start with a
// zero at origin time, followed by one value per snapshot.
type RawTrace struct {
	Channel  string
	Distance float64
	TMin     float64 // [s]
	DeltaT   float64 // [s]
	Data     []float64
}

// readSnapshotFile parses one snapshot: a header line followed by
// whitespace-delimited numeric rows, one per observation point.
func readSnapshotFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			first = false // header
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, fs := range fields {
			v, err := strconv.ParseFloat(fs, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad value %q: %w", path, fs, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadTraces collects the requested channel group from the snapshot files
// a convolution run left in its working directory. distances maps the
// observation rows back to receiver distances; its length must match the
// row count of the snapshot files. Missing snapshot files are skipped, as
// the solver omits snapshots beyond the relaxation time.
func (r *Runner) ReadTraces(cfg *PsCmpConfig, group ChannelGroup, distances []float64) ([]RawTrace, error) {
	gc, ok := channelGroups[group]
	if !ok {
		return nil, fmt.Errorf("unknown channel group %q", group)
	}

	var snapshots [][][]float64
	for _, fn := range cfg.SnapshotFilenames() {
		path := filepath.Join(r.Dir, fn)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		rows, err := readSnapshotFile(path)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		snapshots = append(snapshots, rows)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no snapshot files found in %s", r.Dir)
	}

	nrec := len(snapshots[0])
	if nrec != len(distances) {
		return nil, fmt.Errorf(
			"snapshot has %d observation rows, want %d", nrec, len(distances))
	}
	ncomp := gc.end - gc.start

	deltat := cfg.Snapshots.DeltaT()
	traces := make([]RawTrace, 0, nrec*ncomp)
	for irec := 0; irec < nrec; irec++ {
		for icomp := 0; icomp < ncomp; icomp++ {
			// Leading zero: the field is at rest at origin time.
			data := make([]float64, 0, len(snapshots)+1)
			data = append(data, 0.0)
			for isnap, rows := range snapshots {
				if len(rows) != nrec {
					return nil, fmt.Errorf(
						"snapshot %d has %d rows, first had %d", isnap+1, len(rows), nrec)
				}
				row := rows[irec]
				if len(row) < gc.end {
					return nil, fmt.Errorf(
						"snapshot %d row %d has %d columns, need %d",
						isnap+1, irec+1, len(row), gc.end)
				}
				data = append(data, row[gc.start+icomp])
			}
			traces = append(traces, RawTrace{
				Channel:  gc.names[icomp],
				Distance: distances[irec],
				TMin:     0,
				DeltaT:   deltat,
				Data:     data,
			})
		}
	}
	return traces, nil
}
