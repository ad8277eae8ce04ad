// Package admin implements the operator command line: hashing passwords for
// seeding accounts and encrypting or decrypting single field values with the
// server's root secret.
package admin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/cryptox"
	"github.com/dmitrijs2005/farmkeeper/internal/server/auth"
	"github.com/dmitrijs2005/farmkeeper/internal/server/encryption"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// SecretKeyEnv names the variable consulted before prompting for the secret.
const SecretKeyEnv = "FARMKEEPER_SECRET_KEY"

var (
	ErrUsage    = errors.New("usage: admin <hash-password|verify-password|encrypt|decrypt> [flags]")
	ErrMismatch = errors.New("passwords do not match")
)

// Test seams for terminal access.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type App struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{in: bufio.NewReader(in), out: out, fd: int(os.Stdin.Fd())}
}

// Run parses args (without the program name) and executes the subcommand.
func (a *App) Run(args []string) error {
	return a.cliApp().Run(append([]string{"farmkeeper-admin"}, args...))
}

func (a *App) cliApp() *cli.App {
	secretFlag := &cli.StringFlag{
		Name:    "secret",
		Usage:   "root secret; prompted for when unset",
		EnvVars: []string{SecretKeyEnv},
	}

	return &cli.App{
		Name:        "farmkeeper-admin",
		Usage:       "farmkeeper operator tools",
		HideVersion: true,
		Writer:      a.out,
		ErrWriter:   a.out,
		Action:      func(*cli.Context) error { return ErrUsage },
		Commands: []*cli.Command{
			{
				Name:  "hash-password",
				Usage: "Print the Argon2id digest of a password read from the terminal",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "time", Aliases: []string{"t"}, Value: uint(cryptox.DefaultArgon2Params.Time), Usage: "argon2 iterations"},
					&cli.UintFlag{Name: "memory", Aliases: []string{"m"}, Value: uint(cryptox.DefaultArgon2Params.Memory), Usage: "argon2 memory in KiB"},
					&cli.UintFlag{Name: "threads", Aliases: []string{"p"}, Value: uint(cryptox.DefaultArgon2Params.Threads), Usage: "argon2 threads"},
				},
				Action: a.hashPassword,
			},
			{
				Name:      "verify-password",
				Usage:     "Check a password against a stored digest",
				ArgsUsage: "<digest>",
				Action:    a.verifyPassword,
			},
			{
				Name:      "encrypt",
				Usage:     "Encrypt one field value",
				ArgsUsage: "[value]",
				Flags:     []cli.Flag{secretFlag},
				Action:    a.encrypt,
			},
			{
				Name:      "decrypt",
				Usage:     "Decrypt one field value",
				ArgsUsage: "[value]",
				Flags:     []cli.Flag{secretFlag},
				Action:    a.decrypt,
			},
		},
	}
}

func (a *App) hashPassword(c *cli.Context) error {
	t, m, p := c.Uint("time"), c.Uint("memory"), c.Uint("threads")
	if t == 0 || m == 0 || p == 0 || p > 255 {
		return fmt.Errorf("%w: invalid argon2 parameters", common.ErrorValidation)
	}

	pw, err := a.readSecret("Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if isTerminal(a.fd) {
		again, err := a.readSecret("Repeat password: ")
		if err != nil {
			return err
		}
		defer common.WipeByteArray(again)
		if string(pw) != string(again) {
			return ErrMismatch
		}
	}

	hasher := auth.NewPasswordHasher(cryptox.Argon2Params{
		Time:    uint32(t),
		Memory:  uint32(m),
		Threads: uint8(p),
		KeyLen:  cryptox.DefaultArgon2Params.KeyLen,
	})
	digest, err := hasher.Hash(string(pw))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, digest)
	return err
}

func (a *App) verifyPassword(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return ErrUsage
	}

	pw, err := a.readSecret("Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	// Verification takes its cost parameters from the digest.
	if !auth.NewPasswordHasher(cryptox.DefaultArgon2Params).Verify(string(pw), c.Args().First()) {
		return ErrMismatch
	}
	_, err = fmt.Fprintln(a.out, "ok")
	return err
}

func (a *App) encrypt(c *cli.Context) error {
	svc, err := a.encryptionService(c)
	if err != nil {
		return err
	}

	plain, err := a.valueArg(c, "Value to encrypt: ")
	if err != nil {
		return err
	}
	enc, err := svc.Encrypt(plain)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, enc)
	return err
}

func (a *App) decrypt(c *cli.Context) error {
	svc, err := a.encryptionService(c)
	if err != nil {
		return err
	}

	enc, err := a.valueArg(c, "Value to decrypt: ")
	if err != nil {
		return err
	}
	plain, err := svc.Decrypt(enc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, plain)
	return err
}

func (a *App) encryptionService(c *cli.Context) (*encryption.Service, error) {
	if s := c.String("secret"); s != "" {
		return encryption.NewService([]byte(s)), nil
	}
	secret, err := a.readSecret("Enter secret key: ")
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, cryptox.ErrEmptySecret
	}
	return encryption.NewService(secret), nil
}

// valueArg takes the value from the single positional argument, or reads one
// line from input.
func (a *App) valueArg(c *cli.Context, prompt string) (string, error) {
	switch c.Args().Len() {
	case 0:
		if isTerminal(a.fd) {
			fmt.Fprint(a.out, prompt)
		}
		return a.readLine()
	case 1:
		return c.Args().First(), nil
	default:
		return "", ErrUsage
	}
}

// readSecret reads without echo on a terminal and falls back to a plain
// line read when input is piped.
func (a *App) readSecret(prompt string) ([]byte, error) {
	if !isTerminal(a.fd) {
		line, err := a.readLine()
		return []byte(line), err
	}

	fmt.Fprint(a.out, prompt)
	pw, err := readPassword(a.fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
