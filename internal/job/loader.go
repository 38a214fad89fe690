package job

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every LoadError.
var ErrMalformed = errors.New("malformed process definition")

// MaxLineBytes caps a single line of a process-definition file.
const MaxLineBytes = 1 << 20

// LoadError reports a process-definition failure together with the 1-based
// line it was found on. Line is 0 when the failure is not tied to a line.
// Err holds the underlying read error, if any.
type LoadError struct {
	Line int
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformed}
	}
	return []error{ErrMalformed, e.Err}
}

// Load opens path and parses every process definition in it.
func Load(path string) ([]Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open process definition file %q: %w", path, err)
	}
	defer f.Close()

	procs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return procs, nil
}

// Parse reads whitespace-delimited definitions of the form
//
//	PID ARRIVAL PRIORITY CPU1 IO1 CPU2 IO2 ... CPUn
//
// one per line. Blank lines and lines starting with '#' are skipped. Any
// invalid line fails the whole parse; no partial result is returned.
func Parse(r io.Reader) ([]Description, error) {
	var procs []Description

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, err := parseLine(line)
		if err != nil {
			return nil, &LoadError{Line: lineNo, Msg: err.Error()}
		}
		procs = append(procs, d)
	}
	if err := sc.Err(); err != nil {
		// the failing line was never counted
		return nil, &LoadError{Line: lineNo + 1, Msg: fmt.Sprintf("read: %v", err), Err: err}
	}
	return procs, nil
}

func parseLine(line string) (Description, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Description{}, errors.New("expected PID, arrival time and priority")
	}

	header := make([]int64, 3)
	for i, name := range []string{"process ID", "arrival time", "priority"} {
		v, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return Description{}, fmt.Errorf("parsing %s: %q is not an integer", name, fields[i])
		}
		header[i] = v
	}

	d := Description{
		PID:      int(header[0]),
		Arrival:  header[1],
		Priority: int(header[2]),
	}

	readingCPU := true
	for _, tok := range fields[3:] {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return Description{}, fmt.Errorf("parsing burst sequence: %q is not an integer", tok)
		}
		if v <= 0 {
			return Description{}, fmt.Errorf("non-positive burst time (%d)", v)
		}
		if readingCPU {
			d.CPUBursts = append(d.CPUBursts, v)
		} else {
			d.IOBursts = append(d.IOBursts, v)
		}
		readingCPU = !readingCPU
	}

	if err := d.Validate(); err != nil {
		return Description{}, err
	}
	return d, nil
}
