package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrColumns indicates a row with fewer than two columns or a column
	// count differing from the first row.
	ErrColumns = errors.New("dataset: need 2 or 3 columns (time ratio [error])")

	// ErrParse indicates a non-numeric field.
	ErrParse = errors.New("dataset: non-numeric value")

	// ErrEmpty indicates a file without data rows.
	ErrEmpty = errors.New("dataset: no data rows")

	// ErrLength indicates columns of unequal length.
	ErrLength = errors.New("dataset: column length mismatch")
)

// Dataset holds mixing times (ms), intensity ratios I12/I11 and the optional
// per-point ratio uncertainty. Errors is zero-filled when absent; it is
// display data and never weights a fit.
type Dataset struct {
	Times     []float64
	Ratios    []float64
	Errors    []float64
	HasErrors bool
}

// LineError reports where in the input a row failed.
type LineError struct {
	Line    int
	Text    string
	Wrapped error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Wrapped)
}

func (e *LineError) Unwrap() error {
	return e.Wrapped
}

func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse reads whitespace-delimited rows of time, ratio and an optional error.
// Blank lines and '#' comments are skipped; columns beyond the third are ignored.
func Parse(r io.Reader) (*Dataset, error) {
	ds := &Dataset{}
	cols := 0

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if cols == 0 {
			cols = len(fields)
		}
		if len(fields) < 2 || len(fields) != cols {
			return nil, &LineError{Line: lineNo, Text: sc.Text(), Wrapped: ErrColumns}
		}

		vals := make([]float64, 0, 3)
		for _, f := range fields[:min(cols, 3)] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &LineError{Line: lineNo, Text: sc.Text(), Wrapped: fmt.Errorf("%w: %q", ErrParse, f)}
			}
			vals = append(vals, v)
		}

		ds.Times = append(ds.Times, vals[0])
		ds.Ratios = append(ds.Ratios, vals[1])
		if len(vals) > 2 {
			ds.Errors = append(ds.Errors, vals[2])
		} else {
			ds.Errors = append(ds.Errors, 0)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(ds.Times) == 0 {
		return nil, ErrEmpty
	}
	ds.HasErrors = cols > 2
	return ds, nil
}

// Write emits ds in the format Parse reads.
func Write(w io.Writer, ds *Dataset) error {
	bw := bufio.NewWriter(w)
	if ds.HasErrors {
		fmt.Fprintln(bw, "# mixing_time(ms)\tI12/I11\terror")
	} else {
		fmt.Fprintln(bw, "# mixing_time(ms)\tI12/I11")
	}
	for i := range ds.Times {
		row := strconv.FormatFloat(ds.Times[i], 'g', -1, 64) + "\t" + strconv.FormatFloat(ds.Ratios[i], 'g', -1, 64)
		if ds.HasErrors {
			row += "\t" + strconv.FormatFloat(ds.Errors[i], 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func Save(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Dataset) Len() int { return len(d.Times) }

func (d *Dataset) Validate() error {
	if len(d.Times) != len(d.Ratios) || len(d.Errors) != len(d.Times) {
		return fmt.Errorf("%w: times=%d ratios=%d errors=%d", ErrLength, len(d.Times), len(d.Ratios), len(d.Errors))
	}
	return nil
}

// MaxTime is the longest mixing time, or 0 for an empty dataset.
func (d *Dataset) MaxTime() float64 {
	best := 0.0
	for i, t := range d.Times {
		if i == 0 || t > best {
			best = t
		}
	}
	return best
}
