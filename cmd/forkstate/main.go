// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "forkstate"
	app.Usage = "Verified on-demand access to the state of a remote archive node"
	app.Flags = []cli.Flag{
		configFlag,
		rpcFlag,
		blockFlag,
		unverifiedFlag,
		verbosityFlag,
		enableMetricsFlag,
		metricsAddrFlag,
	}
	app.Commands = []cli.Command{
		{
			Name:      "account",
			Usage:     "print an account",
			ArgsUsage: "<address>",
			Action:    accountAction,
		},
		{
			Name:      "code",
			Usage:     "print the code of an account",
			ArgsUsage: "<address>",
			Action:    codeAction,
		},
		{
			Name:      "storage",
			Usage:     "print the value of a storage slot",
			ArgsUsage: "<address> <slot>",
			Action:    storageAction,
		},
		{
			Name:      "proof",
			Usage:     "print the EIP-1186 proof of an account and some slots",
			ArgsUsage: "<address> [slot...]",
			Action:    proofAction,
		},
		{
			Name:      "exists",
			Usage:     "tell whether an account exists",
			ArgsUsage: "<address>",
			Action:    existsAction,
		},
		{
			Name:      "dump",
			Usage:     "fetch the given slots and dump the storage known for an account",
			ArgsUsage: "<address> [slot...]",
			Action:    dumpAction,
		},
		{
			Name:   "root",
			Usage:  "print the state root of the block",
			Action: rootAction,
		},
		{
			Name:      "prepare",
			Usage:     "print the environment for replaying a mined transaction",
			ArgsUsage: "<tx hash>",
			Action:    prepareAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
