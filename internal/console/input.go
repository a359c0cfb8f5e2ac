package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// SecretReader prints prompt and reads one value without echoing it.
type SecretReader func(prompt string) (string, error)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// TerminalSecret reads from the controlling terminal with echo disabled. It
// returns nil when f is not a terminal, in which case the console falls back
// to plain line input.
func TerminalSecret(f *os.File, w io.Writer) SecretReader {
	fd := int(f.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return nil
	}

	return func(prompt string) (string, error) {
		if _, err := fmt.Fprint(w, prompt); err != nil {
			return "", err
		}
		b, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}
}

// readLine returns one line without its terminator. A final line that ends
// at EOF is still returned.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
