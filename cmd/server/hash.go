package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service/auth"
	"github.com/spf13/cobra"
)

// newHashPasswordCommand prints bcrypt hashes for seeding users directly in SQL.
// Passwords are taken from the arguments, or one per line from stdin.
func newHashPasswordCommand() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password...]",
		Short: "Print bcrypt hashes for the given passwords",
		RunE: func(cmd *cobra.Command, args []string) error {
			passwords := args
			if len(passwords) == 0 {
				var err error
				if passwords, err = readPasswords(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return hashPasswords(cmd.OutOrStdout(), auth.NewBcryptHasher(cost), passwords)
		},
	}
	cmd.Flags().IntVar(&cost, "cost", auth.MinBcryptCost, "bcrypt work factor")
	return cmd
}

func readPasswords(in io.Reader) ([]string, error) {
	var passwords []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			passwords = append(passwords, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passwords: %w", err)
	}
	return passwords, nil
}

func hashPasswords(out io.Writer, hasher auth.PasswordHasher, passwords []string) error {
	if len(passwords) == 0 {
		return fmt.Errorf("no passwords given")
	}
	for _, password := range passwords {
		if err := domain.ValidatePassword(password); err != nil {
			return err
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, hash); err != nil {
			return err
		}
	}
	return nil
}
