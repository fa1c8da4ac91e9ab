package main

import (
	"context"
	"fmt"

	"github.com/keyfold/keyfold/permission"
)

// ---- User Commands ----

func (c *CLI) userCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: keyfold user <subcommand>")
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "get":
		if len(args) < 1 {
			return fmt.Errorf("usage: keyfold user get <id>")
		}
		return c.getUser(args[0])
	case "perms":
		if len(args) < 1 {
			return fmt.Errorf("usage: keyfold user perms <id>")
		}
		return c.userPerms(args[0])
	case "sessions":
		if len(args) < 1 {
			return fmt.Errorf("usage: keyfold user sessions <id>")
		}
		return c.listUserSessions(args[0])
	case "revoke-sessions":
		if len(args) < 1 {
			return fmt.Errorf("usage: keyfold user revoke-sessions <id>")
		}
		return c.revokeUserSessions(args[0])
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

func (c *CLI) getUser(id string) error {
	pub, err := c.engine.User(context.Background(), id)
	if err != nil {
		return err
	}
	return printJSON(pub)
}

func (c *CLI) userPerms(id string) error {
	perms, err := c.engine.EffectivePermissions(context.Background(), id)
	if err != nil {
		return err
	}
	for _, p := range perms {
		fmt.Println(p.String())
	}
	return nil
}

func (c *CLI) listUserSessions(id string) error {
	sessions, err := c.engine.Sessions(context.Background(), id)
	if err != nil {
		return err
	}
	return printJSON(sessions)
}

func (c *CLI) revokeUserSessions(id string) error {
	n, err := c.engine.RevokeAll(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Revoked %d session(s)\n", n)
	return nil
}

func (c *CLI) checkCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: keyfold check <user-id> <permission> [permission...]")
	}

	required := make([]permission.Permission, 0, len(args)-1)
	for _, s := range args[1:] {
		p, err := permission.Parse(s)
		if err != nil {
			return err
		}
		required = append(required, p)
	}

	if err := c.engine.Authorize(context.Background(), args[0], required...); err != nil {
		return err
	}
	fmt.Println("Allowed")
	return nil
}
