package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/term"
)

// readLine prompts and reads one trimmed line.
func readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Println(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readMultiline prompts and reads lines until the first empty one.
func readMultiline(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Println(prompt)

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// readYesNo prompts for a y/n answer, defaulting to no.
func readYesNo(reader *bufio.Reader, prompt string) bool {
	answer, err := readLine(reader, prompt+" [y/N]")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// withPromptedPassword injects a password into a DSN whose user has none,
// reading it without echo when stdin is a terminal. DSNs that already carry
// a password, or malformed ones, pass through untouched.
func withPromptedPassword(dsn string, reader *bufio.Reader) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, set := u.User.Password(); set {
		return dsn
	}

	var password string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Password for %s@%s: ", u.User.Username(), u.Host)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return dsn
		}
		password = string(raw)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return dsn
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return dsn
	}

	u.User = url.UserPassword(u.User.Username(), password)
	return u.String()
}
