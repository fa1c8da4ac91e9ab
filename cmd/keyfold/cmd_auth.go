package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/keyfold/keyfold/flow"
)

// ---- Auth Commands ----

func (c *CLI) registerCommand(args []string) error {
	opts := parseArgs(args)
	if opts["email"] == "" || opts["password"] == "" {
		return fmt.Errorf("usage: keyfold register --email=EMAIL --password=PWD [--roles=R1,R2] [--permissions=P1,P2]")
	}

	pub, err := c.engine.Register(context.Background(), flow.RegisterParams{
		Email:            opts["email"],
		Password:         opts["password"],
		Roles:            splitList(opts["roles"]),
		ExtraPermissions: splitList(opts["permissions"]),
	})
	if err != nil {
		return err
	}
	return printJSON(pub)
}

func (c *CLI) loginCommand(args []string) error {
	opts := parseArgs(args)
	if opts["email"] == "" || opts["password"] == "" {
		return fmt.Errorf("usage: keyfold login --email=EMAIL --password=PWD [--otp=CODE] [--ttl=MINUTES]")
	}

	var ttl time.Duration
	if v := opts["ttl"]; v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid --ttl: %q", v)
		}
		ttl = time.Duration(minutes) * time.Minute
	}

	res, err := c.engine.Login(context.Background(), flow.LoginParams{
		Email:    opts["email"],
		Password: opts["password"],
		OTPCode:  opts["otp"],
		TTL:      ttl,
	})
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}

	if c.issuer != nil {
		tok, err := c.issuer.Mint(res.Session)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		fmt.Printf("token: %s\n", tok)
	}
	return nil
}

func (c *CLI) logoutCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: keyfold logout <session-id>")
	}
	if err := c.engine.Logout(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Println("Session revoked")
	return nil
}

func (c *CLI) touchCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: keyfold touch <session-id>")
	}
	sess, err := c.engine.Touch(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printJSON(sess)
}

func (c *CLI) tokenCommand(args []string) error {
	if len(args) < 2 || args[0] != "inspect" {
		return fmt.Errorf("usage: keyfold token inspect <token>")
	}
	if c.issuer == nil {
		return fmt.Errorf("KEYFOLD_TOKEN_SECRET is not set")
	}

	claims, err := c.issuer.Parse(args[1])
	if err != nil {
		return err
	}
	// The token is only a handle; liveness comes from the record.
	sess, err := c.engine.Session(context.Background(), claims.SessionID)
	if err != nil {
		return err
	}
	return printJSON(sess)
}

func (c *CLI) compactCommand() error {
	for name, compact := range map[string]func() error{
		"users":    c.users.Compact,
		"sessions": c.sessions.Compact,
		"roles":    c.roles.Compact,
	} {
		if err := compact(); err != nil {
			return fmt.Errorf("compact %s: %w", name, err)
		}
	}
	fmt.Println("Compacted record files")
	return nil
}
