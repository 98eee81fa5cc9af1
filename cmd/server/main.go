package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// defaultConfigFile is used when neither --config nor INGEST_CONFIG is set.
const defaultConfigFile = "ingest.yaml"

var configFile string

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Multi-file ingestion service with structured-data recovery",
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	root.AddCommand(newServeCommand())
	root.AddCommand(newIngestCommand())
	return root
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	if p := os.Getenv("INGEST_CONFIG"); p != "" {
		return p
	}
	return defaultConfigFile
}
