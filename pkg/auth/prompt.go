package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptCredentials reads a user id and a password, one per line, from r.
// userID is used as-is when non-empty and only the password is read.
func PromptCredentials(userID string, r io.Reader, w io.Writer) (Credentials, error) {
	scanner := bufio.NewScanner(r)

	if userID == "" {
		fmt.Fprint(w, "User ID: ")
		line, err := scanLine(scanner)
		if err != nil {
			return Credentials{}, err
		}
		userID = line
	}
	if userID == "" {
		return Credentials{}, errors.New("user id cannot be empty")
	}

	fmt.Fprint(w, "Password: ")
	password, err := scanLine(scanner)
	if err != nil {
		return Credentials{}, err
	}
	if password == "" {
		return Credentials{}, errors.New("password cannot be empty")
	}

	return Credentials{UserID: userID, Password: password}, nil
}

func scanLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errors.New("no input received")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
