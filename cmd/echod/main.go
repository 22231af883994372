package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/dmaia/echochat/internal/daemon"
	"github.com/dmaia/echochat/internal/session"
)

func main() {
	storeFlag := flag.String("store", "", "profile-store name (overrides config default)")
	flag.Parse()

	storeName := session.Resolve(*storeFlag)
	if err := session.ValidateName(storeName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{StoreName: storeName}),
	)

	app.Run()
}
