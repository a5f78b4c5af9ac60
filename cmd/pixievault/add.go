package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pixievault/pixievault/internal/usecase"
	"github.com/pixievault/pixievault/internal/vault"
)

// entryFlags are the base field flags shared by add and edit.
type entryFlags struct {
	name          string
	protocol      string
	website       string
	username      string
	password      string
	passwordStdin bool
	notes         string
	fields        []string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Entry name")
	cmd.Flags().StringVar(&f.protocol, "protocol", "", "Protocol, e.g. https or ssh")
	cmd.Flags().StringVarP(&f.website, "website", "w", "", "Website or host")
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "User name")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Password (prompted for when omitted on a terminal)")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	cmd.Flags().StringArrayVar(&f.fields, "field", nil, "Custom field as key=value (repeatable)")
}

// base returns the base fields whose flags were set on the command line.
func (f *entryFlags) base(cmd *cobra.Command) vault.BaseFields {
	values := map[string]string{
		vault.FieldName:     f.name,
		vault.FieldProtocol: f.protocol,
		vault.FieldWebsite:  f.website,
		vault.FieldUsername: f.username,
		vault.FieldPassword: f.password,
		vault.FieldNotes:    f.notes,
	}

	var b vault.BaseFields
	for _, name := range vault.BaseFieldNames {
		if cmd.Flags().Changed(name) {
			b.Set(name, values[name])
		}
	}
	return b
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var flags entryFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			custom, err := parseFields(flags.fields)
			if err != nil {
				return err
			}

			base := flags.base(cmd)
			confirm, err := collectPassword(cmd, &flags, &base, true)
			if err != nil {
				return err
			}

			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			result, err := sess.entries.Add(cmd.Context(), usecase.AddInput{
				Base:    base,
				Custom:  custom,
				Confirm: confirm,
			})
			if err != nil {
				return err
			}

			printWarnings(cmd, result.Warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s\n", result.Entry.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// collectPassword fills base.Password from --password-stdin or, when prompt is
// true and no password flag was given on an interactive terminal, from a
// prompt with confirmation. The confirmation is returned for validation.
func collectPassword(cmd *cobra.Command, flags *entryFlags, base *vault.BaseFields, prompt bool) (*string, error) {
	if flags.passwordStdin {
		if base.Password != nil {
			return nil, errors.New("--password and --password-stdin are mutually exclusive")
		}
		line, err := readLine(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		base.Password = &line
		return nil, nil
	}

	if base.Password != nil || !prompt {
		return nil, nil
	}
	fd, ok := terminalFD(cmd.InOrStdin())
	if !ok {
		return nil, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return nil, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	p := string(password)
	c := string(confirm)
	base.Password = &p
	return &c, nil
}

func terminalFD(in io.Reader) (int, bool) {
	f, ok := in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseFields turns repeated key=value flags into a map. The value may contain '='.
func parseFields(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
}
