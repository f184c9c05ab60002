package layout

// Target describes the storage word of the machine state is packed into.
type Target struct {
	Name     string
	SlotSize int // bytes per storage slot
}

// EVM is the only target: 32 byte storage slots.
func EVM() Target {
	return Target{Name: "evm", SlotSize: 32}
}
