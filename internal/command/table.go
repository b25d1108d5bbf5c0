// Package command holds the literal command table. It is a plain lookup with
// canned responses, deliberately trivial and replaceable; nothing here feeds
// back into the line-editing state machine.
package command

// Responses use telnet line endings.
const helpText = "Available commands:\r\n" +
	"  help    show this message\r\n" +
	"Press Ctrl+C or Ctrl+D to close the connection.\r\n"

const ackText = "Get the CMD\r\n"

// Table maps literal command lines to canned responses.
type Table struct {
	responses map[string]string
	fallback  string
}

// NewTable creates the default command table.
func NewTable() *Table {
	return &Table{
		responses: map[string]string{
			"help": helpText,
		},
		fallback: ackText,
	}
}

// Respond returns the response bytes for a committed line. Unrecognized
// commands get a fixed acknowledgement so the client always sees that a
// non-empty commit was received.
func (t *Table) Respond(line string) []byte {
	if resp, ok := t.responses[line]; ok {
		return []byte(resp)
	}
	return []byte(t.fallback)
}
