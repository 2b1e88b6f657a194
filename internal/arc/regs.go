package arc

// Auxiliary register addresses.
const (
	AuxStatus32 uint32 = 0x00A
	AuxDebug    uint32 = 0x005
	AuxPC       uint32 = 0x006
	AuxICIVIC   uint32 = 0x010
	AuxDCIVDC   uint32 = 0x047
	AuxDCCtrl   uint32 = 0x048
	AuxDCFlush  uint32 = 0x04B
	AuxIEnable  uint32 = 0x40C
)

// DEBUG register bits.
const (
	DebugSingleStep      uint32 = 1 << 0  // SS
	DebugForceHalt       uint32 = 1 << 1  // FH
	DebugActionPointHalt uint32 = 1 << 2  // AH
	DebugSingleInstrStep uint32 = 1 << 11 // IS
	DebugResetApplied    uint32 = 1 << 22 // RA
	DebugBreakpointHalt  uint32 = 1 << 29 // BH
	DebugSelfHalt        uint32 = 1 << 30 // SH

	// DebugASRShift and DebugASRMask locate the action point status field,
	// one bit per triggered action point.
	DebugASRShift = 3
	DebugASRMask  = 0xFF
)

// STATUS32 register bits.
const (
	Status32Halt           uint32 = 1 << 0 // H
	Status32ActionPointHit uint32 = 1 << 5 // AE
)

// Cache control values.
const (
	ICInvalidate     uint32 = 1
	DCInvalidate     uint32 = 1
	DCFlush          uint32 = 1
	DCCtrlInvalidate uint32 = 1 << 6 // IM: flush before invalidate
)

// Interrupt enable values written to AUX_IENABLE.
const (
	InterruptsEnabled  uint32 = 0xFFFFFFFF
	InterruptsDisabled uint32 = 0x00000000
)

// Action point register layout. Each slot owns three consecutive aux
// registers: match value, match mask and control.
const (
	APMatchValueBase uint32 = 0x220
	APMatchMaskBase  uint32 = 0x221
	APControlBase    uint32 = 0x222
	APStructLen      uint32 = 3

	// MaxActionPoints is the largest comparator count the layout addresses.
	MaxActionPoints = 8
)

// Action point control register fields.
const (
	APTargetInstAddr   uint32 = 0x0
	APTargetMemoryAddr uint32 = 0x4
	APTargetAuxRegAddr uint32 = 0x8

	APTransactionDisable   uint32 = 0x00
	APTransactionWrite     uint32 = 0x10
	APTransactionRead      uint32 = 0x20
	APTransactionReadWrite uint32 = 0x30

	APTargetMask      uint32 = 0x0C
	APTransactionMask uint32 = 0x30
)

// APMatchValue returns the AMV register of slot.
func APMatchValue(slot int) uint32 { return APMatchValueBase + uint32(slot)*APStructLen }

// APMatchMask returns the AMM register of slot.
func APMatchMask(slot int) uint32 { return APMatchMaskBase + uint32(slot)*APStructLen }

// APControl returns the AC register of slot.
func APControl(slot int) uint32 { return APControlBase + uint32(slot)*APStructLen }

// NumCoreRegisters is the number of general purpose core registers.
const NumCoreRegisters = 32

// Core register numbers with architectural roles.
const (
	CoreGP     uint32 = 26
	CoreFP     uint32 = 27
	CoreSP     uint32 = 28
	CoreILink1 uint32 = 29
	CoreILink2 uint32 = 30
	CoreBlink  uint32 = 31
)
