package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/zkgit/internal/configs"
	logger "github.com/PolarWolf314/zkgit/internal/logging"
)

var (
	verbose    bool
	debug      bool
	configFile string
	Logger     logger.Logger
)

// AddGlobalFlags registers the flags every zkgit command accepts.
func AddGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	fs.BoolVarP(&debug, "debug", "d", false, "enable debug output")
	fs.StringVarP(&configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/zkgit/config.toml)")
}

// InitLogger builds the shared logger from the global flags.
func InitLogger(cmd *cobra.Command, args []string) {
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
	}
	Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
}

// settings resolves file locations, honouring --config.
func settings() (*configs.Settings, error) {
	s, err := configs.DefaultSettings()
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		s.ConfigPath = configFile
	}
	Logger.Debugf("Config file: %s", s.ConfigPath)
	return s, nil
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configFile = ""
	Logger = logger.Logger{}
	resetShellState()
	resetHookState()
	resetConfigInitState()
	resetConfigShowState()
}
