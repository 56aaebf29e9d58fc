package signal

import "fmt"

// CommandKind is the kind of a DDR command.
type CommandKind int

// A list of supported DDR commands. Dummy does not reach the chips. It only
// reports the protocol constraint that kept the data bus unused.
const (
	CmdKindActivate CommandKind = iota
	CmdKindPrecharge
	CmdKindRead
	CmdKindWrite
	CmdKindDummy
	NumCmdKind
)

func (k CommandKind) String() string {
	switch k {
	case CmdKindActivate:
		return "Activate"
	case CmdKindPrecharge:
		return "Precharge"
	case CmdKindRead:
		return "Read"
	case CmdKindWrite:
		return "Write"
	case CmdKindDummy:
		return "Dummy"
	default:
		panic(fmt.Sprintf("CommandKind.String: unknown kind %d", int(k)))
	}
}

// ProtocolConstraint explains why a command could not be sent.
type ProtocolConstraint int

// All the protocol constraints that are tracked.
const (
	PCNone ProtocolConstraint = iota
	PCActToAct
	PCActToPre
	PCActToRead
	PCActToWrite
	PCReadToWrite
	PCReadToPre
	PCWriteToRead
	PCWriteToPre
	PCPreToAct
	NumProtocolConstraint
)

func (pc ProtocolConstraint) String() string {
	switch pc {
	case PCNone:
		return "none"
	case PCActToAct:
		return "a2a"
	case PCActToPre:
		return "a2p"
	case PCActToRead:
		return "a2r"
	case PCActToWrite:
		return "a2w"
	case PCReadToWrite:
		return "r2w"
	case PCReadToPre:
		return "r2p"
	case PCWriteToRead:
		return "w2r"
	case PCWriteToPre:
		return "w2p"
	case PCPreToAct:
		return "p2a"
	default:
		panic(fmt.Sprintf("ProtocolConstraint.String: unknown constraint %d",
			int(pc)))
	}
}

// Command is a DDR protocol command.
type Command struct {
	Kind       CommandKind
	Bank       int
	Row        uint32
	Col        uint32
	Data       *Burst
	Constraint ProtocolConstraint

	// Advanced is set on commands issued ahead of the transaction that needs
	// them.
	Advanced bool

	// TransactionID identifies the transaction that caused the command, if
	// any.
	TransactionID string
}

// NewActivate creates a command that opens a row.
func NewActivate(bank int, row uint32) *Command {
	return &Command{Kind: CmdKindActivate, Bank: bank, Row: row}
}

// NewPrecharge creates a command that closes the open row of a bank.
func NewPrecharge(bank int) *Command {
	return &Command{Kind: CmdKindPrecharge, Bank: bank}
}

// NewReadCommand creates a command that reads a burst starting from a column.
func NewReadCommand(bank int, col uint32) *Command {
	return &Command{Kind: CmdKindRead, Bank: bank, Col: col}
}

// NewWriteCommand creates a command that writes a burst.
func NewWriteCommand(bank int, col uint32, data *Burst) *Command {
	return &Command{Kind: CmdKindWrite, Bank: bank, Col: col, Data: data}
}

// NewDummy creates a command that only carries a protocol constraint.
func NewDummy(pc ProtocolConstraint) *Command {
	return &Command{Kind: CmdKindDummy, Constraint: pc}
}

// IsAccess returns true for commands that move data.
func (c *Command) IsAccess() bool {
	return c.Kind == CmdKindRead || c.Kind == CmdKindWrite
}

func (c *Command) String() string {
	switch c.Kind {
	case CmdKindActivate:
		return fmt.Sprintf("ACT bank=%d row=%d", c.Bank, c.Row)
	case CmdKindPrecharge:
		return fmt.Sprintf("PRE bank=%d", c.Bank)
	case CmdKindRead:
		return fmt.Sprintf("RD bank=%d col=%d", c.Bank, c.Col)
	case CmdKindWrite:
		return fmt.Sprintf("WR bank=%d col=%d", c.Bank, c.Col)
	default:
		return fmt.Sprintf("DUMMY %s", c.Constraint)
	}
}
