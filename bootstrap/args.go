/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/acronis/go-actionserver/config"
	"github.com/acronis/go-actionserver/endpoints"
)

// EnvVarsPrefix is a prefix of environment variables that may be used instead of the command line flags
// (e.g., ACTION_SERVER_PORT=5056, ACTION_SERVER_SSL_KEYFILE=key.pem).
const EnvVarsPrefix = "action_server"

// DefaultServerPort is the port the action server listens on by default.
const DefaultServerPort = 5055

const (
	flagPort              = "port"
	flagCORS              = "cors"
	flagActions           = "actions"
	flagSSLKeyfile        = "ssl-keyfile"
	flagSSLCertificate    = "ssl-certificate"
	flagSSLPassword       = "ssl-password"
	flagAutoReload        = "auto-reload"
	flagEndpoints         = "endpoints"
	flagGRPC              = "grpc"
	flagLogLevel          = "loglevel"
	flagVerbose           = "verbose"
	flagDebug             = "debug"
	flagQuiet             = "quiet"
	flagLogFile           = "log-file"
	flagLoggingConfigFile = "logging-config-file"
	flagHelp              = "help"
)

// RawArgs contains the startup options as they were passed by the user.
type RawArgs struct {
	Actions           string
	Port              int
	CORS              []string // nil if the option was not passed
	SSLKeyfile        string
	SSLCertificate    string
	SSLPassword       string
	AutoReload        bool
	Endpoints         string
	GRPC              bool
	LogLevel          string // empty if no logging level option was passed
	LogFile           string
	LoggingConfigFile string
	Help              bool
}

// NewFlagSet creates the set of the action server command line flags.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("action-server", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.IntP(flagPort, "p", DefaultServerPort, "port to run the server at")
	fs.StringSlice(flagCORS, nil, `enable CORS for the passed origins (zero or more), use "*" to allow all origins`)
	fs.Lookup(flagCORS).NoOptDefVal = ""
	fs.String(flagActions, "", "name of action package to be loaded (dotted notation, e.g. directory.actions)")
	fs.String(flagSSLKeyfile, "", "SSL private key for HTTPS or secure gRPC")
	fs.String(flagSSLCertificate, "", "SSL certificate for HTTPS or secure gRPC")
	fs.String(flagSSLPassword, "", "password of the SSL private key")
	fs.Bool(flagAutoReload, false, "enable auto-reloading of modules containing actions (HTTP only)")
	fs.String(flagEndpoints, endpoints.DefaultPath, "configuration file for the assistant as a yml file")
	fs.Bool(flagGRPC, false, "start the gRPC server instead of the HTTP one")

	fs.String(flagLogLevel, "", "logging level (debug, info, warn, error)")
	fs.BoolP(flagVerbose, "v", false, "be verbose, sets logging level to info")
	fs.Bool(flagDebug, false, "print lots of debugging statements, sets logging level to debug")
	fs.Bool(flagQuiet, false, "be quiet, sets logging level to warn")
	fs.String(flagLogFile, "", "store logs in the specified file in JSON format")
	fs.String(flagLoggingConfigFile, "", "YAML file with the additional logging destination configuration")

	fs.BoolP(flagHelp, "h", false, "show this help message and exit")
	return fs
}

// Usage returns the description of the command line flags.
func Usage() string {
	return "Usage: action-server [flags]\n\nFlags:\n" + NewFlagSet().FlagUsages()
}

// ParseArgs parses the command line arguments (without the program name).
// Options that are not passed on the command line are taken from the ACTION_SERVER_* environment variables.
// Positional arguments and unknown flags are rejected with ErrInvalidArguments.
func ParseArgs(args []string) (RawArgs, error) {
	fs := NewFlagSet()
	if err := fs.Parse(expandCORSArgs(args)); err != nil {
		return RawArgs{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if help, _ := fs.GetBool(flagHelp); help {
		return RawArgs{Help: true}, nil
	}
	if fs.NArg() != 0 {
		return RawArgs{}, fmt.Errorf("%w: unexpected positional arguments %q", ErrInvalidArguments, fs.Args())
	}

	va := config.NewViperAdapter()
	va.UseEnvVars(EnvVarsPrefix)
	if err := va.BindFlags(fs); err != nil {
		return RawArgs{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return readRawArgs(va)
}

func readRawArgs(dp config.DataProvider) (RawArgs, error) {
	var raw RawArgs
	var err error

	if raw.Port, err = dp.GetInt(flagPort); err != nil {
		return RawArgs{}, &ConfigError{Option: flagPort, Err: fmt.Errorf("%w: %v", ErrInvalidPort, err)}
	}
	if dp.IsSet(flagCORS) {
		var origins []string
		if origins, err = dp.GetStringSlice(flagCORS); err != nil {
			return RawArgs{}, &ConfigError{Option: flagCORS, Err: err}
		}
		raw.CORS = splitOrigins(origins)
	}

	strOpts := []struct {
		name string
		dst  *string
	}{
		{flagActions, &raw.Actions},
		{flagSSLKeyfile, &raw.SSLKeyfile},
		{flagSSLCertificate, &raw.SSLCertificate},
		{flagSSLPassword, &raw.SSLPassword},
		{flagEndpoints, &raw.Endpoints},
		{flagLogLevel, &raw.LogLevel},
		{flagLogFile, &raw.LogFile},
		{flagLoggingConfigFile, &raw.LoggingConfigFile},
	}
	for _, opt := range strOpts {
		if *opt.dst, err = dp.GetString(opt.name); err != nil {
			return RawArgs{}, &ConfigError{Option: opt.name, Err: err}
		}
	}

	boolOpts := []struct {
		name string
		dst  *bool
	}{
		{flagAutoReload, &raw.AutoReload},
		{flagGRPC, &raw.GRPC},
	}
	for _, opt := range boolOpts {
		if *opt.dst, err = dp.GetBool(opt.name); err != nil {
			return RawArgs{}, &ConfigError{Option: opt.name, Err: err}
		}
	}

	if raw.LogLevel == "" {
		if raw.LogLevel, err = logLevelFromShortcuts(dp); err != nil {
			return RawArgs{}, err
		}
	}
	return raw, nil
}

// logLevelFromShortcuts applies --debug, --verbose and --quiet. The most verbose one wins.
func logLevelFromShortcuts(dp config.DataProvider) (string, error) {
	for _, shortcut := range []struct {
		flag  string
		level string
	}{
		{flagDebug, "debug"},
		{flagVerbose, "info"},
		{flagQuiet, "warn"},
	} {
		enabled, err := dp.GetBool(shortcut.flag)
		if err != nil {
			return "", &ConfigError{Option: shortcut.flag, Err: err}
		}
		if enabled {
			return shortcut.level, nil
		}
	}
	return "", nil
}

// expandCORSArgs turns "--cors a b" into "--cors=a --cors=b", so the option takes all the values
// that follow it up to the next flag. A bare "--cors" is kept as is and yields an empty origin list.
func expandCORSArgs(args []string) []string {
	corsFlag := "--" + flagCORS
	expanded := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return append(expanded, args[i:]...)
		}
		if args[i] != corsFlag {
			expanded = append(expanded, args[i])
			continue
		}
		n := 0
		for ; i+1 < len(args) && !strings.HasPrefix(args[i+1], "-"); i++ {
			expanded = append(expanded, corsFlag+"="+args[i+1])
			n++
		}
		if n == 0 {
			expanded = append(expanded, corsFlag)
		}
	}
	return expanded
}

// splitOrigins splits comma-separated values that may come from the environment variable.
func splitOrigins(values []string) []string {
	origins := make([]string, 0, len(values))
	for _, v := range values {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}
