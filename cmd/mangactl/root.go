package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"mangashelf/internal/manga"
	"mangashelf/pkg/logging"
	"mangashelf/pkg/storage"
	"mangashelf/pkg/utils"
)

type app struct {
	configPath string
	store      string
	dataPath   string

	logger *logging.Logger
	closer io.Closer
	repo   *manga.Repo
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mangactl",
		Short:         "Inspect and maintain the manga collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("MANGASHELF_CONFIG"), "path to TOML config file")
	root.PersistentFlags().StringVar(&a.store, "store", "", "store kind (file or sqlite), overrides config")
	root.PersistentFlags().StringVar(&a.dataPath, "data", "", "data path, overrides config")

	root.AddCommand(
		newListCommand(a),
		newGetCommand(a),
		newDeleteCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newWatchCommand(),
	)
	return root
}

func (a *app) open(stderr io.Writer) error {
	cfg, err := utils.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.store != "" {
		cfg.Store = a.store
	}
	if a.dataPath != "" {
		cfg.DataPath = a.dataPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Format: "console", Console: stderr})
	if err != nil {
		return err
	}

	st, err := storage.Open(cfg.Store, cfg.DataPath, a.logger.Logger)
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		a.closer = c
	}
	a.repo = manga.NewRepo(st)
	return nil
}

func (a *app) close() error {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			return err
		}
		a.closer = nil
	}
	return a.logger.Close()
}
