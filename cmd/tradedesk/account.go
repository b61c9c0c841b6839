package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type registerCmd struct {
	username string
	email    string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account" }
func (*registerCmd) Usage() string {
	return `tradedesk register -u <username> -e <email>

  Creates an account with a funded default portfolio. The password is
  read from the terminal.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username")
	f.StringVar(&c.email, "e", "", "Email address")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if c.username == "" || c.email == "" {
		fmt.Fprintln(os.Stderr, "Both -u and -e are required.")
		return subcommands.ExitUsageError
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return subcommands.ExitFailure
	}

	user, err := a.client.Register(ctx, c.username, c.email, password)
	if err != nil {
		a.fail("registering", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Registered %s. Run 'tradedesk login -u %s' to sign in.\n", user.Username, user.Username)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	username string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in and remember the session" }
func (*loginCmd) Usage() string {
	return `tradedesk login [-u <username>]

  Signs in and stores the session token in TRADEDESK_SESSION
  (default ~/.tradedesk/session.json).
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username (prompted when empty)")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)

	username := c.username
	if username == "" {
		var err error
		if username, err = prompt("Username: "); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading username: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return subcommands.ExitFailure
	}

	user, err := a.client.Login(ctx, username, password)
	if err != nil {
		a.fail("logging in", err)
		return subcommands.ExitFailure
	}
	if err := a.session.Save(a.cfg.SessionFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving session: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Logged in as %s.\n", user.Username)
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "forget the saved session" }
func (*logoutCmd) Usage() string            { return "tradedesk logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (*logoutCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	a.session.Logout()
	if err := a.session.Save(a.cfg.SessionFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving session: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("Logged out.")
	return subcommands.ExitSuccess
}
