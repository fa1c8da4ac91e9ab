package main

import (
	"fmt"
	"os"

	"github.com/keyfold/keyfold/config"
	"github.com/keyfold/keyfold/logger"
)

// Version is set at build time
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "version":
		fmt.Printf("keyfold %s\n", Version)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg.LogLevel)

	cli, err := newCLI(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cli.close()

	switch cmd {
	case "register":
		err = cli.registerCommand(args)
	case "login":
		err = cli.loginCommand(args)
	case "logout":
		err = cli.logoutCommand(args)
	case "touch":
		err = cli.touchCommand(args)
	case "user", "users":
		err = cli.userCommand(args)
	case "session", "sessions":
		err = cli.sessionCommand(args)
	case "mfa":
		err = cli.mfaCommand(args)
	case "check":
		err = cli.checkCommand(args)
	case "token":
		err = cli.tokenCommand(args)
	case "compact":
		err = cli.compactCommand()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`keyfold - local authentication and authorization engine

Usage:
  keyfold <command> [subcommand] [options]

Environment Variables:
  KEYFOLD_DATA_DIR             Record file directory (default: keyfold-data)
  KEYFOLD_LOG_LEVEL            debug, info, warn, error (default: info)
  KEYFOLD_SESSION_TTL_MINUTES  Session lifetime (default: 60)
  KEYFOLD_MAX_FAILED_ATTEMPTS  Failures before lockout (default: 5)
  KEYFOLD_LOCKOUT_MINUTES      Lockout duration (default: 15)
  KEYFOLD_BCRYPT_COST          Password hash cost (default: 12)
  KEYFOLD_ISSUER               TOTP provisioning issuer (default: Keyfold)
  KEYFOLD_TOKEN_SECRET         HMAC key for signed session tokens

Commands:
  register  --email=EMAIL --password=PWD [--roles=R1,R2] [--permissions=P1,P2]
  login     --email=EMAIL --password=PWD [--otp=CODE] [--ttl=MINUTES]
  logout    <session-id>
  touch     <session-id>

  user      Inspect accounts
    get     <id>
    perms   <id>            Effective permission set
    sessions <id>           List the user's sessions
    revoke-sessions <id>    Revoke all the user's sessions

  session   Inspect sessions
    get     <id>

  mfa       Manage multi-factor enrollment
    setup   <user-id>
    verify  <user-id> <code>

  check     <user-id> <permission> [permission...]
  token     inspect <token>    Validate a signed session token
  compact   Rewrite record files to their live snapshots

  version   Show CLI version
  help      Show this help
`)
}
