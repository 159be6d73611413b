package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Failures are reported without their cause. Run with --verbose to log it.
var (
	errEncryptFailed = errors.New("could not encrypt value")
	errDecryptFailed = errors.New("could not decrypt payload")
)

func newEncryptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <alias> [plaintext]",
		Short: "Encrypt a string under the data key for alias",
		Long: `Encrypt a string under the data key for alias, creating the key on first use.
The plaintext is read from stdin when not given as an argument. The Base64
payload is written to stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			plaintext, err := readInput(cmd, args, 1, "Plaintext: ")
			if err != nil {
				return err
			}
			payload, ok := a.cipher.Encrypt(plaintext, args[0])
			if !ok {
				return errEncryptFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
}

func newDecryptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <alias> [payload]",
		Short: "Decrypt a payload produced by encrypt",
		Long: `Decrypt a Base64 payload with the data key for alias. The payload is read
from stdin when not given as an argument. The plaintext is written to stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			payload, err := readInput(cmd, args, 1, "Payload: ")
			if err != nil {
				return err
			}
			plaintext, ok := a.cipher.Decrypt(strings.TrimSpace(payload), args[0])
			if !ok {
				return errDecryptFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}
}
