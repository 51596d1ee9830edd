package engine

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ============================================================================
// DATASET — Immutable raw collection
// ============================================================================
// The engine never holds a process-wide dataset. A Dataset is loaded once by
// a source, then passed explicitly into every evaluation. It is never
// mutated after construction, so any number of goroutines may read it.
// ============================================================================

// Dataset is an immutable collection of salary records.
type Dataset struct {
	records     []SalaryRecord
	fingerprint string
}

// NewDataset copies records into a new Dataset.
func NewDataset(records []SalaryRecord) *Dataset {
	owned := make([]SalaryRecord, len(records))
	copy(owned, records)
	return &Dataset{
		records:     owned,
		fingerprint: fingerprint(owned),
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the record at index i.
func (d *Dataset) At(i int) SalaryRecord { return d.records[i] }

// Records returns the underlying records. Callers must treat the slice as
// read-only; engine functions never write to their input.
func (d *Dataset) Records() []SalaryRecord {
	if d == nil {
		return nil
	}
	return d.records
}

// Fingerprint identifies the dataset contents. Equal contents in equal
// order give equal fingerprints.
func (d *Dataset) Fingerprint() string {
	if d == nil {
		return fingerprint(nil)
	}
	return d.fingerprint
}

func fingerprint(records []SalaryRecord) string {
	h := xxhash.New()
	var buf [8]byte
	for _, r := range records {
		binary.LittleEndian.PutUint64(buf[:], uint64(r.Year))
		h.Write(buf[:])
		for _, s := range []string{r.Seniority, r.ContractType, r.CompanySize, r.Role, r.RemoteType, r.ResidenceCountry} {
			h.WriteString(s)
			h.Write([]byte{0})
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.SalaryUSD))
		h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
