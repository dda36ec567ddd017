// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command ogssdump inspects an OGSS binary file without requiring the
// caller's own compile-time Schema: it opens the file against an empty
// Schema, so every type in it is unknown, and prints what File.Anomalies
// records on that recoverable path (unknown enums, the fields of every
// class, unattributed HD blocks). Classes and containers are not listed
// on their own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ogss "github.com/ogss-rt/ogss-go"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "ogssdump",
		Short: "Inspect OGSS binary files",
	}
	root.AddCommand(newDumpCmd(), newVersionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ogssdump version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ogssdump", version)
		},
	}
}

func newDumpCmd() *cobra.Command {
	var showAnomalies bool
	cmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Open an OGSS file and print the anomalies noted while opening it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0], showAnomalies)
		},
	}
	cmd.Flags().BoolVar(&showAnomalies, "anomalies", true, "print recoverable anomalies noted while opening")
	return cmd
}

func runDump(path string, showAnomalies bool) error {
	f, err := ogss.Open(path, &ogss.Schema{}, &ogss.Options{Mode: ogss.ModeReadOnly})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if showAnomalies {
		for _, a := range f.Anomalies() {
			fmt.Println("anomaly:", a)
		}
	}
	return nil
}
