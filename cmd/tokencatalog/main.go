package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "tokencatalog",
		Usage: "Aggregate exchange token listings with logo metadata and serve the catalog",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Load the token catalog and serve it over HTTP",
				Flags:  serveFlags(),
				Action: serve,
			},
			{
				Name:   "balance",
				Usage:  "Load the catalog once and query an ERC-20 balance by token symbol",
				Flags:  balanceFlags(),
				Action: balance,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
