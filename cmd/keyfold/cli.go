package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keyfold/keyfold/audit"
	"github.com/keyfold/keyfold/config"
	"github.com/keyfold/keyfold/flow"
	"github.com/keyfold/keyfold/hasher"
	"github.com/keyfold/keyfold/identity"
	"github.com/keyfold/keyfold/logger"
	"github.com/keyfold/keyfold/otp"
	"github.com/keyfold/keyfold/role"
	"github.com/keyfold/keyfold/store/filestore"
	"github.com/keyfold/keyfold/token"
)

// CLI wires the engine against file-backed stores under the data dir.
type CLI struct {
	cfg      *config.Config
	engine   *flow.Engine
	users    *filestore.Store[*identity.User]
	sessions *filestore.Store[*identity.Session]
	roles    *filestore.Store[role.Role]
	issuer   *token.Issuer
}

func newCLI(cfg *config.Config) (*CLI, error) {
	users, err := filestore.Open[*identity.User](
		filepath.Join(cfg.DataDir, "users.jsonl"),
		func(u *identity.User) string { return u.Email },
	)
	if err != nil {
		return nil, err
	}
	sessions, err := filestore.Open[*identity.Session](
		filepath.Join(cfg.DataDir, "sessions.jsonl"), nil)
	if err != nil {
		users.Close()
		return nil, err
	}
	roles, err := filestore.Open[role.Role](
		filepath.Join(cfg.DataDir, "roles.jsonl"), nil)
	if err != nil {
		users.Close()
		sessions.Close()
		return nil, err
	}

	cli := &CLI{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		roles:    roles,
	}
	if cfg.TokenSecret != "" {
		cli.issuer, err = token.NewIssuer([]byte(cfg.TokenSecret), cfg.Issuer)
		if err != nil {
			cli.close()
			return nil, err
		}
	}

	cli.engine = flow.NewEngine(
		flow.Config{
			SessionTTL:        cfg.SessionTTL(),
			MaxFailedAttempts: cfg.MaxFailedAttempts,
			LockoutDuration:   cfg.LockoutDuration(),
			Issuer:            cfg.Issuer,
		},
		users, sessions, roles,
		hasher.NewBcryptHasher(cfg.BcryptCost),
		otp.NewTOTP(),
		flow.WithLogger(logger.Log),
		flow.WithAuditSink(audit.NewZapSink(logger.Log)),
	)
	return cli, nil
}

func (c *CLI) close() {
	c.users.Close()
	c.sessions.Close()
	c.roles.Close()
}

// ---- Utility Functions ----

func parseArgs(args []string) map[string]string {
	opts := make(map[string]string)
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
			if len(parts) == 2 {
				opts[parts[0]] = parts[1]
			} else {
				opts[parts[0]] = "true"
			}
		}
	}
	return opts
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
