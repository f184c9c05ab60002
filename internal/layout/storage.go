package layout

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/holiman/uint256"

	"yulgen/internal/ast"
)

// Entry is the storage location assigned to one state variable.
type Entry struct {
	Variable ast.VariableID
	Contract ast.ContractID
	Name     string
	Type     string
	Slot     uint256.Int
	Offset   uint8
	Layout   TypeLayout
}

// StorageLayout is the packed storage of a contract, inherited variables first.
type StorageLayout struct {
	Entries   []Entry
	SlotsUsed uint256.Int
}

// StorageLayoutOf assigns slots to every state variable reachable from
// contract. Variables of the most base contract come first; each packed
// variable continues in the current slot when its bytes still fit.
func (e *LayoutEngine) StorageLayoutOf(decls *ast.Declarations, contract ast.ContractID) (StorageLayout, error) {
	c := decls.Contract(contract)
	if c == nil {
		return StorageLayout{}, fmt.Errorf("layout: unknown contract %d", contract)
	}
	slotSize := e.slotSize()
	var (
		out    StorageLayout
		slot   uint256.Int
		offset int
	)
	nextSlot := func(by *uint256.Int, typ string) error {
		if _, overflow := slot.AddOverflow(&slot, by); overflow {
			return &LayoutError{Kind: LayoutErrSlotOverflow, Type: typ}
		}
		offset = 0
		return nil
	}
	one := uint256.NewInt(1)

	for _, base := range slices.Backward(c.Linearized) {
		bc := decls.Contract(base)
		if bc == nil {
			continue
		}
		for _, id := range bc.StateVars {
			v := decls.Variable(id)
			if v == nil {
				continue
			}
			l, lerr := e.layoutOf(v.Type)
			if lerr != nil {
				return StorageLayout{}, fmt.Errorf("state variable %s.%s: %w", bc.Name, v.Name, lerr)
			}
			entry := Entry{Variable: id, Contract: base, Name: v.Name, Type: v.Type, Layout: l}

			if !l.Packed {
				if offset > 0 {
					if err := nextSlot(one, v.Type); err != nil {
						return StorageLayout{}, err
					}
				}
				entry.Slot.Set(&slot)
				out.Entries = append(out.Entries, entry)
				if err := nextSlot(&l.Slots, v.Type); err != nil {
					return StorageLayout{}, err
				}
				continue
			}

			if offset+l.Bytes > slotSize {
				if err := nextSlot(one, v.Type); err != nil {
					return StorageLayout{}, err
				}
			}
			off, err := safecast.Conv[uint8](offset)
			if err != nil {
				return StorageLayout{}, fmt.Errorf("state variable %s.%s: %w", bc.Name, v.Name, err)
			}
			entry.Slot.Set(&slot)
			entry.Offset = off
			out.Entries = append(out.Entries, entry)
			offset += l.Bytes
		}
	}

	out.SlotsUsed.Set(&slot)
	if offset > 0 {
		out.SlotsUsed.AddUint64(&out.SlotsUsed, 1)
	}
	return out, nil
}

// Lookup returns the entry of a variable.
func (s StorageLayout) Lookup(id ast.VariableID) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Variable == id {
			return e, true
		}
	}
	return Entry{}, false
}
