// Package cli implements the interactive terminal client for the one-time
// secret service.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/onetimesecret/internal/client/api"
	"github.com/dmitrijs2005/onetimesecret/internal/client/config"
)

type App struct {
	config *config.Config
	api    *api.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := api.NewClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		api:    apiClient,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "One-time secret CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprint(a.out, "ots> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Available commands: share, reveal <key>, ping, exit")
		case "share":
			a.share(ctx)
		case "reveal":
			a.reveal(ctx, args)
		case "ping":
			a.ping(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) ping(ctx context.Context) {
	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintln(a.out, "Server unreachable:", err)
		return
	}
	fmt.Fprintln(a.out, "Server is up")
}
