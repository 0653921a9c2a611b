package standardize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ewalsh/admitdb/internal/clean"
)

// rowsEnvelope accepts the {"rows": [...]} wrapper form of the batch input.
type rowsEnvelope struct {
	Rows []clean.Record `json:"rows"`
}

// DecodeRows reads records from JSON that is either a bare list or a
// {"rows": [...]} object.
func DecodeRows(data []byte) ([]clean.Record, error) {
	var rows []clean.Record
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}
	var env rowsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return env.Rows, nil
}

// ProcessFile standardizes every record of the input file and streams the
// results to out as JSON Lines, one record per line, written incrementally
// so a long batch survives inspection mid-run. Returns the number of rows
// written.
func (s *Standardizer) ProcessFile(ctx context.Context, inPath string, out io.Writer) (int, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", inPath, err)
	}
	rows, err := DecodeRows(data)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", inPath, err)
	}

	enc := json.NewEncoder(out)
	written := 0
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		res := s.Standardize(ctx, RowText(rows[i]))
		rows[i].LLMProgram = res.Program
		rows[i].LLMUniversity = res.University
		if err := enc.Encode(rows[i]); err != nil {
			return written, fmt.Errorf("writing row %d: %w", i, err)
		}
		written++
	}
	return written, nil
}

// OpenOutput resolves the batch output destination: stdout when toStdout is
// set, otherwise the named file, appended to or truncated per appendOut.
// The caller closes the returned writer unless it is stdout.
func OpenOutput(path string, appendOut, toStdout bool) (io.WriteCloser, error) {
	if toStdout || path == "" {
		return nopCloser{os.Stdout}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendOut {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
