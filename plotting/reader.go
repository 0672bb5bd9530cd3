package plotting

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relab/experimenttools/metric"
)

// ReadSerialized reads the serialized metric files in the given directory and
// rebuilds one curve per file. It understands the "value" and "time,value" row
// formats; for files with additional columns the first column is used.
func ReadSerialized(dir string) ([]metric.Curve, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	curves := make([]metric.Curve, 0, len(paths))
	for _, path := range paths {
		curve, err := readCurve(path)
		if err != nil {
			return nil, err
		}
		curves = append(curves, curve)
	}
	return curves, nil
}

func readCurve(path string) (metric.Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return metric.Curve{}, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return metric.Curve{}, fmt.Errorf("failed to read header of %s: %w", path, err)
		}
		return metric.Curve{}, fmt.Errorf("missing header in %s", path)
	}

	timed := strings.HasPrefix(scanner.Text(), "time,")
	curve := metric.Curve{Name: name, XLabel: "Iteration"}
	if timed {
		curve.XLabel = "Seconds"
	}

	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ",")
		if timed {
			t, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return metric.Curve{}, fmt.Errorf("bad time in %s: %w", path, err)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return metric.Curve{}, fmt.Errorf("bad value in %s: %w", path, err)
			}
			curve.X = append(curve.X, t)
			curve.Y = append(curve.Y, v)
			continue
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return metric.Curve{}, fmt.Errorf("bad value in %s: %w", path, err)
		}
		curve.X = append(curve.X, float64(len(curve.Y)))
		curve.Y = append(curve.Y, v)
	}
	if err := scanner.Err(); err != nil {
		return metric.Curve{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return curve, nil
}
