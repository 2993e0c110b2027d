package qboauth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/term"
)

// Interactor is the user-interaction port of the Manager. It covers the three
// moments the interactive flow needs a human: supplying client credentials,
// opening the consent page, and pasting back the redirect URL.
type Interactor interface {
	// Credentials prompts for the OAuth client id and secret (first run only).
	Credentials(ctx context.Context) (clientID, clientSecret string, err error)

	// OpenURL presents the authorization URL to the user, typically by
	// launching the default browser.
	OpenURL(url string) error

	// RedirectURL blocks until the user pastes the full redirect URL the
	// provider sent the browser to after approval.
	RedirectURL(ctx context.Context) (string, error)
}

// TerminalInteractor drives the interactive flow over stdin/stdout, reading
// the client secret without echo when stdin is a terminal.
type TerminalInteractor struct {
	in  *bufio.Reader
	out io.Writer

	// inFd is the stdin descriptor used for no-echo secret entry; -1 disables it.
	inFd int
}

// Compile-time check to ensure TerminalInteractor implements Interactor
var _ Interactor = (*TerminalInteractor)(nil)

// NewTerminalInteractor creates a TerminalInteractor over the process's
// stdin and stdout.
func NewTerminalInteractor() *TerminalInteractor {
	return &TerminalInteractor{
		in:   bufio.NewReader(os.Stdin),
		out:  os.Stdout,
		inFd: int(os.Stdin.Fd()),
	}
}

// Credentials prompts for the client id and secret. The secret is read
// without echo when stdin is a terminal.
func (t *TerminalInteractor) Credentials(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	fmt.Fprint(t.out, "Client ID: ")
	clientID, err := t.readLine()
	if err != nil {
		return "", "", fmt.Errorf("reading client id: %w", err)
	}

	fmt.Fprint(t.out, "Client secret: ")
	var clientSecret string
	if t.inFd >= 0 && term.IsTerminal(t.inFd) {
		secret, err := term.ReadPassword(t.inFd)
		fmt.Fprintln(t.out)
		if err != nil {
			return "", "", fmt.Errorf("reading client secret: %w", err)
		}
		clientSecret = strings.TrimSpace(string(secret))
	} else {
		clientSecret, err = t.readLine()
		if err != nil {
			return "", "", fmt.Errorf("reading client secret: %w", err)
		}
	}

	return clientID, clientSecret, nil
}

// OpenURL launches the platform's default browser. The URL is always printed
// so the user can open it by hand if the launch fails or goes unnoticed.
func (t *TerminalInteractor) OpenURL(url string) error {
	fmt.Fprintf(t.out, "Opening browser for QuickBooks authorization:\n\n  %s\n\n", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// RedirectURL blocks until the user pastes the full redirect URL.
func (t *TerminalInteractor) RedirectURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(t.out, "After approving access, paste the full redirect URL here: ")
	return t.readLine()
}

func (t *TerminalInteractor) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
