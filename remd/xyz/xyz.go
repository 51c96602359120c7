// Package xyz reads and writes XYZ structure files: a count line, a
// comment line, then one "Element x y z" record per atom. A comment
// line of the form `Lattice="ax ay az"` carries an orthorhombic cell.
package xyz

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/remd-sim/remd-sim/remd"
)

// Read parses every frame in an XYZ file. If the file name ends with
// ".gz", gzip decompression will be used.
func Read(fileName string) ([]*remd.Configuration, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if path.Ext(fileName) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return ReadAll(reader)
}

// ReadOne parses the first frame of an XYZ file.
func ReadOne(fileName string) (*remd.Configuration, error) {
	frames, err := Read(fileName)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: no frames", fileName)
	}
	return frames[0], nil
}

// ReadAll parses frames from a reader until EOF.
func ReadAll(r io.Reader) ([]*remd.Configuration, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var frames []*remd.Configuration
	for {
		cfg, err := readFrame(scanner)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, cfg)
	}
	return frames, nil
}

func readFrame(scanner *bufio.Scanner) (*remd.Configuration, error) {
	line, err := nextNonEmptyLine(scanner)
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("bad atom count %q", strings.TrimSpace(line))
	}
	if count <= 0 {
		return nil, fmt.Errorf("atom count must be positive, got %d", count)
	}
	if !scanner.Scan() {
		return nil, fmt.Errorf("missing comment line")
	}
	cell := parseLattice(scanner.Text())

	species := make([]string, 0, count)
	positions := make([][3]float64, 0, count)
	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("expected %d atoms, got %d", count, i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("atom %d: need element and 3 coordinates, got %q", i, scanner.Text())
		}
		var pos [3]float64
		for d := 0; d < 3; d++ {
			pos[d], err = strconv.ParseFloat(fields[d+1], 64)
			if err != nil {
				return nil, fmt.Errorf("atom %d: bad coordinate %q", i, fields[d+1])
			}
		}
		species = append(species, fields[0])
		positions = append(positions, pos)
	}
	return remd.NewConfiguration(species, positions, cell)
}

func nextNonEmptyLine(scanner *bufio.Scanner) (string, error) {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			return scanner.Text(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// parseLattice extracts an orthorhombic cell from a comment line of the
// form `Lattice="ax ay az"`. Anything else yields a zero (non-periodic)
// cell.
func parseLattice(comment string) [3]float64 {
	var cell [3]float64
	idx := strings.Index(comment, `Lattice="`)
	if idx < 0 {
		return cell
	}
	rest := comment[idx+len(`Lattice="`):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return cell
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != 3 {
		return cell
	}
	for d := 0; d < 3; d++ {
		v, err := strconv.ParseFloat(fields[d], 64)
		if err != nil {
			return [3]float64{}
		}
		cell[d] = v
	}
	return cell
}

// Write emits a configuration as one XYZ frame.
func Write(w io.Writer, cfg *remd.Configuration, comment string) error {
	if cfg.Periodic() && !strings.Contains(comment, "Lattice=") {
		comment = strings.TrimSpace(fmt.Sprintf(`Lattice="%g %g %g" %s`,
			cfg.Cell[0], cfg.Cell[1], cfg.Cell[2], comment))
	}
	if _, err := fmt.Fprintf(w, "%d\n%s\n", cfg.Len(), comment); err != nil {
		return err
	}
	for i := range cfg.Species {
		p := cfg.Positions[i]
		if _, err := fmt.Fprintf(w, "%s %.8f %.8f %.8f\n", cfg.Species[i], p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}
