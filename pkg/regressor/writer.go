package regressor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
)

// Write emits the regressor set as plain text: a comment header echoing
// the slice order, tensor shape and column semantics, then for each slice
// a marker line followed by nframes rows of twelve fixed-width fields.
// Any line beginning with '#' can be skipped by a loader to recover the
// numeric blocks exactly.
func (s *Set) Write(w io.Writer) error {
	if s.Data == nil {
		return &physio.DataLengthError{Msg: "no regressors have been computed"}
	}
	bw := bufio.NewWriter(w)

	order := make([]string, len(s.Timing.SliceOrder))
	for i, sl := range s.Timing.SliceOrder {
		order[i] = strconv.Itoa(sl)
	}
	fmt.Fprintf(bw, "# slice_order = [ %s ]\n", strings.Join(order, ","))
	fmt.Fprintf(bw, "# Full array shape: (%d, %d, %d)\n", s.Timing.NFrames, NumColumns, len(s.Data))
	fmt.Fprintf(bw, "# time x regressor for each slice in the acquired volume\n")
	fmt.Fprintf(bw, "# regressors: [%s]\n", strings.Join(ColumnNames[:], ", "))

	for sl, rows := range s.Data {
		fmt.Fprintf(bw, "# slice %d\n", sl)
		for _, row := range rows {
			for c, v := range row {
				if c > 0 {
					bw.WriteByte(' ')
				}
				fmt.Fprintf(bw, "%-7.6f", v)
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteFile writes the regressor artifact to the named file.
func (s *Set) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating regressor file: %w", err)
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a regressor artifact back into a Set. The tensor shape comes
// from the header; the numeric rows are everything that is not a comment.
// Only Data and the timing fields recoverable from the header (frame count
// and slice order) are populated.
func Read(r io.Reader) (*Set, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		nframes, nslices int
		sliceOrder       []int
		values           [][]float64
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.Contains(line, "Full array shape:") {
				if _, err := fmt.Sscanf(line, "# Full array shape: (%d, %d, %d)", &nframes, new(int), &nslices); err != nil {
					return nil, &physio.FormatError{Reason: "malformed shape header: " + line}
				}
			}
			if strings.Contains(line, "slice_order =") {
				order, err := parseOrderHeader(line)
				if err != nil {
					return nil, err
				}
				sliceOrder = order
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != NumColumns {
			return nil, &physio.FormatError{Reason: fmt.Sprintf("expected %d fields per row, got %d", NumColumns, len(fields))}
		}
		row := make([]float64, NumColumns)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &physio.FormatError{Reason: "bad numeric field " + f}
			}
			row[i] = v
		}
		values = append(values, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if nframes <= 0 || nslices <= 0 {
		return nil, &physio.FormatError{Reason: "missing or invalid shape header"}
	}
	if len(values) != nframes*nslices {
		return nil, &physio.FormatError{
			Reason: fmt.Sprintf("expected %d rows for shape (%d, %d, %d), got %d",
				nframes*nslices, nframes, NumColumns, nslices, len(values)),
		}
	}

	data := make([][][]float64, nslices)
	for sl := range data {
		data[sl] = values[sl*nframes : (sl+1)*nframes]
	}
	return &Set{
		Data:   data,
		Timing: models.ScanTiming{NFrames: nframes, SliceOrder: sliceOrder},
	}, nil
}

// ReadFile parses the named regressor artifact.
func ReadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening regressor file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func parseOrderHeader(line string) ([]int, error) {
	start := strings.Index(line, "[")
	end := strings.Index(line, "]")
	if start < 0 || end < start {
		return nil, &physio.FormatError{Reason: "malformed slice_order header: " + line}
	}
	body := strings.TrimSpace(line[start+1 : end])
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	order := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &physio.FormatError{Reason: "malformed slice_order header: " + line}
		}
		order[i] = v
	}
	return order, nil
}
