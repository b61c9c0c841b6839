package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/config"
	"tradedesk/internal/render"
)

// app carries what every command needs. Commands receive it as the first
// Execute argument.
type app struct {
	cfg      *config.ClientConfig
	session  *apiclient.Session
	client   *apiclient.Client
	renderer *render.Renderer
	loadErr  error
}

func newApp() *app {
	cfg := config.LoadClient()
	session, err := apiclient.LoadSession(cfg.SessionFile)
	if err != nil {
		session = &apiclient.Session{}
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &app{
		cfg:      cfg,
		session:  session,
		client:   apiclient.NewClient(cfg.APIURL, session, httpClient),
		renderer: render.New(cfg.Currency),
		loadErr:  err,
	}
}

func appFrom(args []interface{}) *app {
	return args[0].(*app)
}

// requireLogin reports a friendly error when there is no usable session.
func (a *app) requireLogin() bool {
	if a.loadErr != nil {
		fmt.Fprintf(os.Stderr, "Error loading session: %v\n", a.loadErr)
	}
	if !a.session.Authenticated() {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'tradedesk login' first.")
		return false
	}
	return true
}

// printMarkdown styles md for the terminal, falling back to the raw text.
func (a *app) printMarkdown(md string) {
	out, err := render.Terminal(md, *style, *width)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints err, hinting at login when the token was rejected.
func (a *app) fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	if apiclient.IsUnauthorized(err) {
		fmt.Fprintln(os.Stderr, "Your session has expired. Run 'tradedesk login' again.")
	}
}

// stdin is shared so buffered input survives across prompts.
var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
