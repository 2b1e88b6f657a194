package arc

// Registers is the register half of a JTAG transport. Calls are synchronous
// and address a single register.
type Registers interface {
	ReadAuxRegister(addr uint32) (uint32, error)
	WriteAuxRegister(addr uint32, value uint32) error
	ReadCoreRegister(num uint32) (uint32, error)
	WriteCoreRegister(num uint32, value uint32) error
}

// Memory is the memory half of a JTAG transport.
type Memory interface {
	ReadMemory(addr uint32, length int) ([]byte, error)
	WriteMemory(addr uint32, data []byte) error
}

// Transport combines register and memory access.
type Transport interface {
	Registers
	Memory
}

// AlgorithmGuard is implemented by transports whose memory writes are
// filtered while the target is under debugger control. Setting the guard
// lets a single write through unfiltered.
type AlgorithmGuard interface {
	SetAlgorithmRunning(running bool)
}

// GuardedWrite performs write with guard raised when the memory
// implementation supports it.
func GuardedWrite(mem Memory, addr uint32, data []byte) error {
	g, ok := mem.(AlgorithmGuard)
	if !ok {
		return mem.WriteMemory(addr, data)
	}
	g.SetAlgorithmRunning(true)
	err := mem.WriteMemory(addr, data)
	g.SetAlgorithmRunning(false)
	return err
}
