package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Report format changes
const reportSchemaVersion uint16 = 1

// ErrReportSchema is returned when a report was written by another schema.
var ErrReportSchema = errors.New("report schema mismatch")

// Report is the msgpack summary of a build.
type Report struct {
	Schema uint16

	// Key identifies the unit text together with the output-relevant settings.
	Key        []byte
	Unit       string
	EVMVersion string
	Revert     string

	Contracts []ContractReport
	Timings   *TimingReport `msgpack:",omitempty"`
}

// ContractReport lists the names and locations chosen for one contract.
type ContractReport struct {
	Name     string
	Abstract bool

	CreationOrder []FunctionReport
	RuntimeOrder  []FunctionReport
	Helpers       []string
	Entrypoints   []EntrypointReport
	Storage       []StorageReport
}

// FunctionReport is one generated body, in drain order.
type FunctionReport struct {
	ID     uint32
	Source string
	Name   string
}

// EntrypointReport is one selector of the deployed dispatcher.
type EntrypointReport struct {
	Selector  string
	Signature string
	Function  string
}

// StorageReport is the location of one state variable.
type StorageReport struct {
	Name   string
	Type   string
	Slot   string
	Offset uint8
}

// NewReport summarises a build result.
func NewReport(res *BuildResult) *Report {
	key := buildKey(res.Unit.Digest, res.Settings)
	r := &Report{
		Schema:     reportSchemaVersion,
		Key:        key[:],
		Unit:       res.Unit.Path,
		EVMVersion: res.Settings.EVMVersion.String(),
		Revert:     res.Settings.RevertStrings.String(),
	}
	for _, c := range res.Contracts {
		cr := ContractReport{Name: c.Name, Abstract: c.Abstract}
		if !c.Abstract {
			cr.CreationOrder = functionReports(c.Creation.Functions)
			cr.RuntimeOrder = functionReports(c.Runtime.Functions)
			cr.Helpers = append(append([]string(nil), c.Creation.Helpers...), c.Runtime.Helpers...)
			for _, ep := range c.Runtime.Entrypoints {
				cr.Entrypoints = append(cr.Entrypoints, EntrypointReport{
					Selector:  ep.Selector,
					Signature: ep.Signature,
					Function:  ep.Function,
				})
			}
			for _, e := range c.Storage.Entries {
				cr.Storage = append(cr.Storage, StorageReport{
					Name:   e.Name,
					Type:   e.Type,
					Slot:   e.Slot.Dec(),
					Offset: e.Offset,
				})
			}
		}
		r.Contracts = append(r.Contracts, cr)
	}
	return r
}

func functionReports(fns []GeneratedFunction) []FunctionReport {
	out := make([]FunctionReport, 0, len(fns))
	for _, f := range fns {
		out = append(out, FunctionReport{ID: uint32(f.ID), Source: f.Source, Name: f.Name})
	}
	return out
}

// WriteReport serializes a report next to path and renames it into place.
func WriteReport(path string, r *Report) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var r Report
	if err := msgpack.NewDecoder(f).Decode(&r); err != nil {
		return nil, err
	}
	if r.Schema != reportSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrReportSchema, r.Schema, reportSchemaVersion)
	}
	return &r, nil
}
