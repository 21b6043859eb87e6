// Package prompt provides the interactive credential prompt implementing the
// domain.CredentialPrompt contract.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kubicas/repoget/internal/domain"
)

// AskCredentials prompts on out and reads a username and password from in for
// the URL being authenticated. The password is read without echo when in is a
// terminal; otherwise it is read as a plain line, which keeps the prompt
// usable under tests and piped input.
func AskCredentials(out io.Writer, in io.Reader, url string) (domain.Credentials, error) {
	fmt.Fprintf(out, "Authentication required for %s\n", url)

	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Username: ")
	username, err := readLine(reader)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading username: %w", err)
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword(in, reader)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprintln(out)

	return domain.Credentials{
		Username: username,
		Password: password,
	}, nil
}

// readPassword reads without echo when the input is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return readLine(reader)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
