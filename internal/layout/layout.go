package layout

import (
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// TypeLayout is the storage footprint of a type for a specific Target.
type TypeLayout struct {
	// Packed types fit in one slot and may share it with their neighbours.
	Packed bool
	// Bytes is the footprint of a packed type.
	Bytes int
	// Slots is the number of whole slots an unpacked type occupies.
	Slots uint256.Int
}

// LayoutEngine computes storage layout for source types.
type LayoutEngine struct {
	Target Target

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		cache:  newCache(),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(typ string) (TypeLayout, error) {
	l, err := e.layoutOf(typ)
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *LayoutEngine) layoutOf(typ string) (TypeLayout, *LayoutError) {
	if e.cache == nil {
		e.cache = newCache()
	}
	typ = strings.TrimSpace(typ)
	if cached, ok := e.cache.get(typ); ok {
		return cached.Layout, cached.Err
	}
	l, err := e.computeLayout(typ)
	e.cache.put(typ, cacheEntry{Layout: l, Err: err})
	return l, err
}

// SizeOf returns the number of bytes a type takes when it shares a slot,
// or the bytes of all its slots otherwise.
func (e *LayoutEngine) SizeOf(typ string) (uint256.Int, error) {
	l, err := e.LayoutOf(typ)
	if err != nil {
		return uint256.Int{}, err
	}
	var size uint256.Int
	if l.Packed {
		size.SetUint64(uint64(l.Bytes))
		return size, nil
	}
	size.Mul(&l.Slots, uint256.NewInt(uint64(e.slotSize())))
	return size, nil
}

func (e *LayoutEngine) slotSize() int {
	if e.Target.SlotSize <= 0 {
		return 32
	}
	return e.Target.SlotSize
}

func (e *LayoutEngine) computeLayout(typ string) (TypeLayout, *LayoutError) {
	slot := e.slotSize()
	switch {
	case typ == "bool":
		return packed(1), nil
	case typ == "address" || typ == "address payable":
		return packed(20), nil
	case typ == "uint" || typ == "int":
		return packed(slot), nil
	case typ == "string" || typ == "bytes":
		return whole(1), nil
	case strings.HasPrefix(typ, "mapping("):
		return whole(1), nil
	case strings.HasSuffix(typ, "]"):
		return e.arrayLayout(typ)
	case strings.HasPrefix(typ, "uint"):
		return intLayout(typ, typ[len("uint"):], slot)
	case strings.HasPrefix(typ, "int"):
		return intLayout(typ, typ[len("int"):], slot)
	case strings.HasPrefix(typ, "bytes"):
		n, err := strconv.Atoi(typ[len("bytes"):])
		if err != nil || n < 1 || n > slot {
			return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: typ}
		}
		return packed(n), nil
	default:
		return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: typ}
	}
}

func intLayout(typ, width string, slot int) (TypeLayout, *LayoutError) {
	bits, err := strconv.Atoi(width)
	if err != nil {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: typ}
	}
	if bits < 8 || bits > slot*8 || bits%8 != 0 {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrInvalidWidth, Type: typ, Width: bits}
	}
	return packed(bits / 8), nil
}

// arrayLayout handles T[] and T[N]. Static arrays of small elements pack
// several elements per slot; every array starts a fresh slot.
func (e *LayoutEngine) arrayLayout(typ string) (TypeLayout, *LayoutError) {
	open := strings.LastIndexByte(typ, '[')
	if open <= 0 {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: typ}
	}
	elem, length := typ[:open], typ[open+1:len(typ)-1]
	el, err := e.layoutOf(elem)
	if err != nil {
		return TypeLayout{}, err
	}
	if length == "" {
		return whole(1), nil
	}
	var n uint256.Int
	if convErr := n.SetFromDecimal(length); convErr != nil {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrLengthConversion, Type: typ, Err: convErr}
	}

	var slots uint256.Int
	if el.Packed {
		perSlot := uint256.NewInt(uint64(e.slotSize() / el.Bytes))
		if _, overflow := slots.AddOverflow(&n, new(uint256.Int).SubUint64(perSlot, 1)); overflow {
			return TypeLayout{}, &LayoutError{Kind: LayoutErrSlotOverflow, Type: typ}
		}
		slots.Div(&slots, perSlot)
	} else if _, overflow := slots.MulOverflow(&n, &el.Slots); overflow {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrSlotOverflow, Type: typ}
	}
	return TypeLayout{Slots: slots}, nil
}

func packed(bytes int) TypeLayout {
	return TypeLayout{Packed: true, Bytes: bytes}
}

func whole(slots uint64) TypeLayout {
	l := TypeLayout{}
	l.Slots.SetUint64(slots)
	return l
}
