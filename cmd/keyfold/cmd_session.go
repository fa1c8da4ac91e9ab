package main

import (
	"context"
	"fmt"
)

// ---- Session Commands ----

func (c *CLI) sessionCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: keyfold session <subcommand>")
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "get":
		if len(args) < 1 {
			return fmt.Errorf("usage: keyfold session get <id>")
		}
		sess, err := c.engine.Session(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(sess)
	default:
		return fmt.Errorf("unknown session subcommand: %s", sub)
	}
}

// ---- MFA Commands ----

func (c *CLI) mfaCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: keyfold mfa <setup|verify>")
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "setup":
		if len(args) < 1 {
			return fmt.Errorf("usage: keyfold mfa setup <user-id>")
		}
		res, err := c.engine.MFASetup(context.Background(), args[0], c.cfg.Issuer)
		if err != nil {
			return err
		}
		fmt.Printf("secret: %s\nuri:    %s\n", res.Secret, res.ProvisioningURI)
		return nil
	case "verify":
		if len(args) < 2 {
			return fmt.Errorf("usage: keyfold mfa verify <user-id> <code>")
		}
		ok, codes, err := c.engine.MFAVerify(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("code rejected")
		}
		fmt.Println("Verified")
		if len(codes) > 0 {
			fmt.Println("Recovery codes (shown once, store them safely):")
			for _, code := range codes {
				fmt.Printf("  %s\n", code)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown mfa subcommand: %s", sub)
	}
}
