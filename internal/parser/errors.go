package parser

import (
	"fmt"
	"strings"
)

// MapError takes a raw input and a participle error, and returns a
// human-friendly guidance message.
func MapError(input string, err error) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("I wasn't able to understand that command")
	}

	parts := strings.Fields(strings.ToLower(input))
	cmd := parts[0]

	switch cmd {
	case "catch":
		return fmt.Errorf("The command catch takes no arguments: catch")
	case "battle":
		return fmt.Errorf("The command battle must be: battle [@user|wild]")
	case "accept":
		return fmt.Errorf("The command accept must be: accept [invite-id]")
	case "decline":
		return fmt.Errorf("The command decline must be: decline [invite-id]")
	case "cancel":
		return fmt.Errorf("The command cancel must be: cancel [invite-id]")
	case "move", "use":
		return fmt.Errorf("The command move must be: move <move name>")
	case "swap":
		return fmt.Errorf("The command swap must be: swap <team slot|catch id>")
	case "throw":
		return fmt.Errorf("The command throw takes no arguments: throw")
	case "flee", "run":
		return fmt.Errorf("The command flee takes no arguments: flee")
	case "team":
		return fmt.Errorf("The command team takes no arguments: team")
	case "pokedex", "dex":
		return fmt.Errorf("The command pokedex takes no arguments: pokedex")
	}

	return fmt.Errorf("I wasn't able to understand that command")
}
