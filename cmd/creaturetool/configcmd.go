package main

import (
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/creature/internal/config"
	"github.com/Faultbox/creature/internal/logger"
)

func cmdConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	save := fs.Bool("save", false, "Write the effective config to the user config directory")
	outPath := fs.String("o", "", "Write the effective config to this path")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	path := *outPath
	if path == "" && *save {
		path = config.UserPath()
	}
	if path == "" {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	logger.Debug("config saved", zap.String("path", path))
	fmt.Fprintf(out, "config written to %s\n", path)
	return nil
}
