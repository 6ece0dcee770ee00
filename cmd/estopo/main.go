// Package main is the entry point for the estopo CLI.
//
// estopo resolves an Elasticsearch node topology into one StatefulSet per
// node group, provisions the TLS material every role needs and rolls the
// result out tier by tier: masters, then clients, then data nodes.
//
// Commands: init, validate, plan, apply, certs.
//
// For detailed usage information, run:
//
//	estopo --help
package main

import (
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/imamik/estopo/cmd/estopo/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
