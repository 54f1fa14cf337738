// Package constants carries the syscall numbers, error codes and
// source/field enum values of the CKB VM syscall ABI, unchanged from the
// native simulator so guest contracts built against either one agree on
// the wire values.
package constants

// Syscall numbers, as assigned by the VM ISA.
const (
	SysExit            = 93
	SysVMVersion       = 2041
	SysCurrentCycles   = 2042
	SysExec            = 2043
	SysLoadTransaction = 2051
	SysLoadScript      = 2052
	SysLoadTxHash      = 2061
	SysLoadScriptHash  = 2062
	SysLoadCell        = 2071
	SysLoadHeader      = 2072
	SysLoadInput       = 2073
	SysLoadWitness     = 2074
	SysLoadCellByField = 2081
	SysLoadHeaderField = 2082
	SysLoadInputField  = 2083
	SysLoadCellAsCode  = 2091
	SysLoadCellData    = 2092
	SysDebug           = 2177
)

// User-visible error codes returned by syscall handlers.
const (
	Success         = 0
	IndexOutOfBound = 1
	ItemMissing     = 2
	WaitFailure     = 5
	InvalidFd       = 6
	OtherEndClosed  = 7
	MaxVMsSpawned   = 8
	MaxFdsCreated   = 9
)

// Cell/header/input data sources.
const (
	SourceInput          = uint64(1)
	SourceOutput         = uint64(2)
	SourceCellDep        = uint64(3)
	SourceHeaderDep      = uint64(4)
	SourceGroupInput     = uint64(0x0100000000000001)
	SourceGroupOutput    = uint64(0x0100000000000002)
	SourceGroupCellDep   = uint64(0x0100000000000003)
	SourceGroupHeaderDep = uint64(0x0100000000000004)
)

// Cell field selectors for ckb_load_cell_by_field.
const (
	CellFieldCapacity          = uint64(0)
	CellFieldDataHash          = uint64(1)
	CellFieldLock              = uint64(2)
	CellFieldLockHash          = uint64(3)
	CellFieldType              = uint64(4)
	CellFieldTypeHash          = uint64(5)
	CellFieldOccupiedCapacity  = uint64(6)
)

// Header field selectors for ckb_load_header_by_field.
const (
	HeaderFieldEpochNumber           = uint64(0)
	HeaderFieldEpochStartBlockNumber = uint64(1)
	HeaderFieldEpochLength           = uint64(2)
)

// Input field selectors for ckb_load_input_by_field.
const (
	InputFieldOutPoint = uint64(0)
	InputFieldSince    = uint64(1)
)

// MaxProcesses and MaxFds are the simulation's fixed quotas (16 live
// processes, 64 live fds i.e. 32 pipes).
const (
	MaxProcesses = 16
	MaxFds       = 64
)

// CurrentCyclesPlaceholder is the fixed, meaningless cycle count the
// simulator reports since it performs no cycle metering.
const CurrentCyclesPlaceholder = 333
