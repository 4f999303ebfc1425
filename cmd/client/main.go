package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophfiles/internal/client/cli"
	"github.com/dmitrijs2005/gophfiles/internal/client/config"
	"github.com/dmitrijs2005/gophfiles/internal/flagx"
)

func main() {
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	args := flagx.Positional(os.Args[1:], config.Flags)
	os.Exit(app.Run(context.Background(), args))
}
