// Package command turns chat lines into commands. Chat is shared with ordinary
// conversation, so anything that is not a command is reported as no match
// rather than as an error.
package command

import "strings"

const (
	Come         = "come"
	Inventory    = "inventory"
	Equip        = "equip"
	Unequip      = "unequip"
	Guard        = "guard"
	StopGuarding = "stop guarding"
	Attack       = "attack"
	StopAttack   = "stop attack"
	Toss         = "toss"
	Follow       = "follow"
	StopFollow   = "stop follow"
	Plugin       = "plugin"
)

const (
	DefaultDestination = "hand"
	DefaultTossCount   = "1"
)

type Command struct {
	Name   string
	Args   []string
	Issuer string
}

// Arg returns the i-th argument or "" when absent.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

var usages = map[string]string{
	Equip:   "Usage: equip <item> [<destination>]",
	Unequip: "Usage: unequip [<destination>]",
	Attack:  "Usage: attack <username>",
	Toss:    "Usage: toss <item> [<count>]",
	Follow:  "Usage: follow [<username>]",
	Plugin:  "Usage: plugin <name> <start|stop>",
}

// Usage returns the usage line for commands that take arguments.
func Usage(name string) string { return usages[name] }

// Parse reads one chat line sent by issuer. ok is false when the line is not
// a command.
func Parse(issuer, line string) (cmd Command, ok bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, false
	}
	head, args := tokens[0], tokens[1:]

	switch head {
	case Come, Inventory, Guard:
		if len(args) != 0 {
			return Command{}, false
		}
		return Command{Name: head, Issuer: issuer}, true

	case "stop":
		if len(args) != 1 {
			return Command{}, false
		}
		name := "stop " + args[0]
		switch name {
		case StopGuarding, StopAttack, StopFollow:
			return Command{Name: name, Issuer: issuer}, true
		}
		return Command{}, false

	case Equip:
		if len(args) == 1 {
			args = append(args, DefaultDestination)
		}
	case Unequip:
		if len(args) == 0 {
			args = append(args, DefaultDestination)
		}
	case Toss:
		if len(args) == 1 {
			args = append(args, DefaultTossCount)
		}
	case Follow:
		if len(args) == 0 {
			args = append(args, issuer)
		}
	case Attack, Plugin:
	default:
		return Command{}, false
	}
	return Command{Name: head, Args: args, Issuer: issuer}, true
}
