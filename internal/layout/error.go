package layout

import "fmt"

// LayoutErrorKind enumerates storage layout failures.
type LayoutErrorKind uint8

const (
	// LayoutErrUnknownType indicates a type name the engine cannot size.
	LayoutErrUnknownType LayoutErrorKind = iota + 1
	LayoutErrInvalidWidth
	LayoutErrLengthConversion
	LayoutErrSlotOverflow
)

// LayoutError represents an error during storage layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string
	Width int   // for LayoutErrInvalidWidth
	Err   error // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnknownType:
		return fmt.Sprintf("cannot lay out type %q", e.Type)
	case LayoutErrInvalidWidth:
		return fmt.Sprintf("invalid bit width %d in %q", e.Width, e.Type)
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array length conversion error (%s): %v", e.Type, e.Err)
		}
		return fmt.Sprintf("array length conversion error (%s)", e.Type)
	case LayoutErrSlotOverflow:
		return fmt.Sprintf("storage of %s exceeds the slot space", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type %q", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
