package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophfiles/internal/client/client"
	"github.com/dmitrijs2005/gophfiles/internal/client/config"
	"github.com/dmitrijs2005/gophfiles/internal/common"
)

// FileClient is the API surface used by the commands.
type FileClient interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, filename, password string) ([]byte, error)
	Create(ctx context.Context, filename string, content []byte, password string) (string, error)
	Update(ctx context.Context, filename string, content []byte, password string) (string, error)
	Delete(ctx context.Context, filename, password string) (string, error)
}

type App struct {
	client FileClient
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.New(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{client: apiClient, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}, nil
}

const usage = `usage: client [-a url] [-c config.json] <command> [args]

commands:
  list                          list stored files
  get <filename>                print a file
  create <filename> <path|->    upload a new file ("-" reads stdin)
  update <filename> <path|->    replace a file's content
  delete <filename>             delete a file
`

var errUsage = errors.New("bad usage")

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	err := a.dispatch(ctx, args)
	if err == nil {
		return 0
	}

	var apiErr *client.APIError
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(a.stderr, usage)
		return 2
	case errors.As(err, &apiErr):
		fmt.Fprintf(a.stderr, "error: %d %s\n", apiErr.StatusCode, apiErr.Message)
	default:
		fmt.Fprintf(a.stderr, "error: %v\n", err)
	}
	return 1
}

func (a *App) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		if len(rest) != 0 {
			return errUsage
		}
		return a.list(ctx)
	case "get":
		if len(rest) != 1 {
			return errUsage
		}
		return a.get(ctx, rest[0])
	case "create", "update":
		if len(rest) != 2 {
			return errUsage
		}
		return a.upload(ctx, cmd, rest[0], rest[1])
	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		return a.delete(ctx, rest[0])
	case "help":
		fmt.Fprint(a.stdout, usage)
		return nil
	}
	return errUsage
}

// withPassword prompts once and wipes the password after fn returns.
func (a *App) withPassword(fn func(password string) error) error {
	pw, err := GetPassword(a.stderr)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	return fn(string(pw))
}
