package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is an exported constant or variable used by the login gate.
var ErrNotFound = errors.New("no matching user record")

// ErrUnavailable is an exported constant or variable used by the login gate.
var ErrUnavailable = errors.New("user roster unavailable")

// ErrMissingColumns is an exported constant or variable used by the login gate.
var ErrMissingColumns = errors.New("roster header missing required columns")

// Record defines a public type used by authgate APIs.
//
// Record instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Record struct {
	Identity string
	Secret   string
	Role     string
}

// Directory is an immutable, in-memory user roster. A Directory built from
// a failed load is unavailable: every lookup reports [ErrUnavailable],
// which is distinct from a lookup miss on a healthy roster.
type Directory struct {
	records []Record
	loadErr error
}

// NewDirectory creates a healthy directory over the given records.
// Lookup order is slice order: with duplicate identities the first
// matching record wins.
func NewDirectory(records []Record) *Directory {
	out := make([]Record, len(records))
	copy(out, records)
	return &Directory{records: out}
}

// Unavailable creates a directory whose every lookup fails with
// [ErrUnavailable], wrapping cause when present.
func Unavailable(cause error) *Directory {
	if cause == nil {
		cause = ErrUnavailable
	} else if !errors.Is(cause, ErrUnavailable) {
		cause = fmt.Errorf("%w: %v", ErrUnavailable, cause)
	}
	return &Directory{loadErr: cause}
}

// Load parses a CSV roster from r. The header row must contain user_id,
// password, and role columns; extra columns are ignored and rows with no
// content are skipped. Field values are matched byte-for-byte later, so no
// trimming or case folding happens here.
func Load(r io.Reader) (*Directory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingColumns
		}
		return nil, err
	}

	identityCol, secretCol, roleCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "user_id":
			identityCol = i
		case "password":
			secretCol = i
		case "role":
			roleCol = i
		}
	}
	if identityCol < 0 || secretCol < 0 || roleCol < 0 {
		return nil, ErrMissingColumns
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if emptyRow(row) {
			continue
		}
		records = append(records, Record{
			Identity: field(row, identityCol),
			Secret:   field(row, secretCol),
			Role:     field(row, roleCol),
		})
	}

	return &Directory{records: records}, nil
}

// LoadFile loads a CSV roster from path.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Find returns the first record whose identity and secret both match
// exactly. It returns [ErrUnavailable] on an unavailable directory and
// [ErrNotFound] when no record matches; a loaded-but-empty roster is a
// normal miss, not an availability failure.
func (d *Directory) Find(identity, secret string) (Record, error) {
	if d == nil || d.loadErr != nil {
		if d == nil {
			return Record{}, ErrUnavailable
		}
		return Record{}, d.loadErr
	}
	for _, rec := range d.records {
		if rec.Identity == identity && rec.Secret == secret {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// Len returns the number of loaded records. An unavailable directory has
// length zero.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Err returns the load failure for an unavailable directory, or nil.
func (d *Directory) Err() error {
	if d == nil {
		return ErrUnavailable
	}
	return d.loadErr
}

func emptyRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
