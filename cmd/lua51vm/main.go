// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command lua51vm loads and runs a precompiled Lua 5.1 binary chunk.
//
// Usage:
//
//	lua51vm [flags] <chunk.luac>
package main

import (
	"fmt"
	"os"

	"github.com/lua51vm/lua51vm/chunk"
	"github.com/lua51vm/lua51vm/host"
	"github.com/lua51vm/lua51vm/stdlib"
	"github.com/lua51vm/lua51vm/vm"
	"gopkg.in/urfave/cli.v1"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "lua51vm"
	app.Usage = "load and run a precompiled Lua 5.1 binary chunk"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "disassemble, d",
			Usage: "print the chunk's instruction listing instead of running it",
		},
		cli.BoolFlag{
			Name:  "fingerprint, f",
			Usage: "print the chunk's content fingerprint before running it",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lua51vm: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: lua51vm [flags] <chunk.luac>", 1)
	}
	filename := ctx.Args().Get(0)

	data, err := os.ReadFile(filename)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("cannot open %s: %v", filename, err), 1)
	}

	if ctx.Bool("fingerprint") {
		fmt.Println(chunk.Fingerprint(data))
	}

	proto, err := chunk.Load(data)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("load error: %v", err), 1)
	}

	if ctx.Bool("disassemble") {
		fmt.Print(vm.Disassemble(proto))
		return nil
	}

	env := host.NewEnvironment()
	stdlib.OpenLibs(env)
	m := vm.New(env)
	stdlib.RegisterPCall(env, m)

	cl := vm.Load(proto)
	if _, err := m.Run(cl, nil); err != nil {
		return cli.NewExitError(fmt.Sprintf("runtime error: %v", err), 1)
	}
	return nil
}
