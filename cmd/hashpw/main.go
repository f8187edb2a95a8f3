// Command hashpw prints a bcrypt hash of a password read from the terminal
// (or stdin), for seeding users directly in the database.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/messagely/internal/prompt"
	"github.com/dmitrijs2005/messagely/internal/server/passwords"
)

// stdinIsTerminal is a test seam.
var stdinIsTerminal = prompt.IsTerminal

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	workFactor := fs.Int("w", 12, "bcrypt work factor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var pw []byte
	var err error
	if stdinIsTerminal() {
		pw, err = prompt.GetPassword("Password", stderr)
	} else {
		pw, err = prompt.ReadPasswordLine(bufio.NewReader(stdin))
	}
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer prompt.Wipe(pw)

	if len(pw) == 0 {
		return errors.New("empty password")
	}

	hashed, err := passwords.NewHasher(*workFactor).Hash(string(pw))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = fmt.Fprintln(stdout, hashed)
	return err
}
