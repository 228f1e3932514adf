// aigw - command-line client for the AI Gateway.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/aigw/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	cli.ApplyColorPreference(args.NoColor)

	var err error
	switch cmd {
	case cli.CmdChat:
		err = cli.HandleChatCommand(args)
	case cli.CmdInteractive:
		err = cli.HandleInteractiveCommand(args)
	case cli.CmdListModels:
		err = cli.HandleListModels(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.PrintUsage()
	}

	if err != nil {
		cli.DisplayError(err)
		os.Exit(cli.GetExitCode(err))
	}
}
