// snapview renders profilez JSON snapshots for humans and tooling.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoobzio/profilez"
	"github.com/zoobzio/profilez/export"
)

var (
	inputPath string
	pprofOut  string
)

var rootCmd = &cobra.Command{
	Use:   "snapview",
	Short: "Inspect profilez snapshots",
	Long: `snapview renders profilez JSON snapshots for humans and tooling.

Examples:
  # Text tree on stdout
  snapview tree -i snapshot.json

  # Folded stacks for flamegraph.pl or speedscope
  snapview collapsed -i snapshot.json > stacks.folded

  # pprof protobuf for go tool pprof
  snapview pprof -i snapshot.json -o profile.pb.gz

  # Straight off a debug endpoint
  curl -s localhost:8080/debug/profilez | snapview tree`,
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Render the snapshot as an indented text tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot()
		if err != nil {
			return err
		}
		return export.WriteTree(os.Stdout, snap)
	},
}

var collapsedCmd = &cobra.Command{
	Use:   "collapsed",
	Short: "Render the snapshot as folded stacks",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot()
		if err != nil {
			return err
		}
		return export.WriteCollapsed(os.Stdout, snap)
	},
}

var pprofCmd = &cobra.Command{
	Use:   "pprof",
	Short: "Convert the snapshot to a pprof protobuf",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot()
		if err != nil {
			return err
		}
		if pprofOut == "" || pprofOut == "-" {
			return export.WriteProfile(os.Stdout, snap)
		}
		f, err := os.Create(pprofOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", pprofOut, err)
		}
		if err := export.WriteProfile(f, snap); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "-", "snapshot JSON path (- for stdin)")
	pprofCmd.Flags().StringVarP(&pprofOut, "output", "o", "-", "output path (- for stdout)")
	rootCmd.AddCommand(treeCmd, collapsedCmd, pprofCmd)
}

func readSnapshot() (profilez.Snapshot, error) {
	var snap profilez.Snapshot

	var r io.Reader = os.Stdin
	if inputPath != "" && inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return snap, fmt.Errorf("open %s: %w", inputPath, err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return snap, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
