package midi

import "fmt"

// Command identifies the channel voice command class of a message,
// encoded in the upper nibble of the status byte.
type Command byte

const (
	// CommandNoteOff is a note off message (2 data bytes).
	CommandNoteOff Command = 0x80

	// CommandNoteOn is a note on message (2 data bytes).
	CommandNoteOn Command = 0x90

	// CommandPolyPressure is a polyphonic key pressure message (2 data bytes).
	CommandPolyPressure Command = 0xA0

	// CommandControlChange is a control change message (2 data bytes).
	// All extended parameter traffic uses this class.
	CommandControlChange Command = 0xB0

	// CommandProgramChange is a program change message (1 data byte).
	CommandProgramChange Command = 0xC0

	// CommandChannelPressure is a channel pressure message (1 data byte).
	CommandChannelPressure Command = 0xD0

	// CommandPitchBend is a pitch bend message (2 data bytes).
	CommandPitchBend Command = 0xE0
)

// String returns the command class name.
func (c Command) String() string {
	switch c {
	case CommandNoteOff:
		return "NOTE_OFF"
	case CommandNoteOn:
		return "NOTE_ON"
	case CommandPolyPressure:
		return "POLY_PRESSURE"
	case CommandControlChange:
		return "CONTROL_CHANGE"
	case CommandProgramChange:
		return "PROGRAM_CHANGE"
	case CommandChannelPressure:
		return "CHANNEL_PRESSURE"
	case CommandPitchBend:
		return "PITCH_BEND"
	default:
		return "UNKNOWN"
	}
}

// DataLength returns the number of data bytes the command class carries.
// Returns 0 for values that are not a channel voice command.
func (c Command) DataLength() int {
	switch c {
	case CommandNoteOff, CommandNoteOn, CommandPolyPressure,
		CommandControlChange, CommandPitchBend:
		return 2
	case CommandProgramChange, CommandChannelPressure:
		return 1
	default:
		return 0
	}
}

// Message is a single channel voice message. Data2 is zero for one-byte
// command classes. Messages are transient: they are produced by the
// parser and consumed within the same pipeline pass.
type Message struct {
	Status byte
	Data1  byte
	Data2  byte
}

// Command returns the command class derived from the status byte.
func (m Message) Command() Command {
	return Command(m.Status & 0xF0)
}

// Channel returns the channel index (0-15) derived from the status byte.
func (m Message) Channel() int {
	return int(m.Status & 0x0F)
}

// String formats the message for diagnostics.
func (m Message) String() string {
	if m.Command().DataLength() == 1 {
		return fmt.Sprintf("%s ch=%d d1=%d", m.Command(), m.Channel(), m.Data1)
	}
	return fmt.Sprintf("%s ch=%d d1=%d d2=%d", m.Command(), m.Channel(), m.Data1, m.Data2)
}
