package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PasswordEnv overrides the terminal prompt, for scripts and piped input.
const PasswordEnv = "GOPHFILES_PASSWORD"

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var lookupEnv = os.LookupEnv

// GetPassword prints a password prompt to w and reads a password from the
// terminal without echo. A newline is printed after the read to keep the
// output tidy.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(w io.Writer) ([]byte, error) {
	if pw, ok := lookupEnv(PasswordEnv); ok && pw != "" {
		return []byte(pw), nil
	}

	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// readContent loads a file's new content from path, or from stdin for "-".
func readContent(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
