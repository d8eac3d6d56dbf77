// creaturetool is a CLI utility for inspecting, playing and baking
// Creature skeletal mesh documents.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/creature/internal/config"
	"github.com/Faultbox/creature/internal/logger"
)

var errNoAsset = errors.New("no creature document given")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args, os.Stdout)
	case "play":
		err = cmdPlay(args, os.Stdout)
	case "bake":
		err = cmdBake(args, os.Stdout)
	case "watch":
		err = cmdWatch(args, os.Stdout)
	case "config":
		err = cmdConfig(args, os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `creaturetool - Creature skeletal mesh utility

Usage:
  creaturetool <command> [options] <file.json>

Commands:
  info <file.json>     Show bones, regions and animations
  play <file.json>     Step an animation and print the posed mesh
  bake <file.json>     Bake animations to point-cache files
  watch <file.json>    Reload the document whenever it changes
  config               Print the effective config, or save it with -save / -o

Common options:
  -config <path>       Config file (default ./creature.yaml)
  -anim <name>         Animation to use
  -fps <n>             Playback frames per second
  -no-loop             Clamp at the clip end
  -debug               Enable debug logging
  -log <path>          Also log to a rotating file

Examples:
  creaturetool info dragon.json
  creaturetool play -anim walk -frames 10 dragon.json
  creaturetool bake -out baked dragon.json
  creaturetool watch -debug dragon.json
  creaturetool config -fps 24 -save`)
}

// setup is loadConfig for commands that need a document.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return nil, err
	}
	if cfg.Asset.Path == "" {
		return nil, errNoAsset
	}
	return cfg, nil
}

// loadConfig parses args on fs, loads the config and starts the logger.
// A positional argument names the document unless -asset already did.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	o := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.Asset == "" && fs.NArg() > 0 {
		o.Asset = fs.Arg(0)
	}

	cfg, err := config.Load(o)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, nil
}
