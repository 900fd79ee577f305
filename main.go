package main

import (
	"os"

	"github.com/mrlokans/pubimport/internal/cli"
	"github.com/mrlokans/pubimport/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(cli.Execute(config.NewConfig(), Version+" ("+Commit+")"))
}
