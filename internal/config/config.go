package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"importctl/internal/dirs"
	"importctl/internal/model"
)

const (
	DefaultServer  = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

// Keys used in config files and IMPORTCTL_* environment variables.
const (
	KeyServer  = "server"
	KeyToken   = "token"
	KeyTimeout = "timeout"
	KeyVerbose = "verbose"
	KeyNoUI    = "no_ui"
)

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"server":  KeyServer,
	"token":   KeyToken,
	"timeout": KeyTimeout,
	"verbose": KeyVerbose,
	"no-ui":   KeyNoUI,
}

// Init wires a Viper instance with config paths, env, defaults, and flag bindings.
// Precedence is flag > env > config file > default. A missing config file is not an error.
func Init(flags *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyTimeout, DefaultTimeout)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			v.AddConfigPath(cfgDir)
		}
		v.SetConfigName("config") // supports config.{yaml|yml|json|toml}
	}

	// Environment variables: IMPORTCTL_*
	v.SetEnvPrefix("IMPORTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// Options resolves the CLI options from a Viper instance.
func Options(v *viper.Viper) model.CLIOptions {
	timeout := v.GetDuration(KeyTimeout)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	server := strings.TrimSpace(v.GetString(KeyServer))
	if server == "" {
		server = DefaultServer
	}
	return model.CLIOptions{
		Server:  server,
		Token:   v.GetString(KeyToken),
		Timeout: timeout,
		Verbose: v.GetBool(KeyVerbose),
		NoUI:    v.GetBool(KeyNoUI),
	}
}
