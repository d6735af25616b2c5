package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/stream"
)

const (
	version       = "0.3.0"
	streamVersion = stream.Version
)

var (
	log       = commonlog.GetLogger("skate.cli")
	streamLog = commonlog.GetLogger("skate.stream")
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "skate",
		Short: "serialize, validate and convert documents",
		Long: fmt.Sprintf(`skate (v%s)

Reformats and validates JSON, converts documents between JSON, the loose
text format, CBOR, YAML, TOML and protobuf Value, and reads and writes
framed document streams.`, version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if v.GetBool("metrics") {
				stream.WriteMetrics(cmd.ErrOrStderr())
			}
		},
	}

	key := "verbose"
	root.PersistentFlags().BoolP(key, "v", false, "log debug output")
	key = "log-file"
	root.PersistentFlags().String(key, "", "write logs to this file instead of stderr")
	key = "max-depth"
	root.PersistentFlags().Int(key, json.DefaultMaxDepth, "maximum nesting depth of decoded documents")
	key = "metrics"
	root.PersistentFlags().Bool(key, false, "print stream counters in Prometheus format to stderr when done")
	key = "config"
	root.PersistentFlags().String(key, "", "config file (default ./skate.toml if present)")

	root.AddCommand(
		newFmtCmd(v),
		newCheckCmd(v),
		newConvertCmd(v),
		newStreamCmd(v),
		newVersionCmd(),
	)
	return root
}

// initConfig layers configuration for the command about to run: flags
// win over SKATE_* environment variables (including those loaded from
// .env files), which win over the config file.
func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix("skate")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("skate")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	verbosity := 0
	if v.GetBool("verbose") {
		verbosity = 2
	}
	var logPath *string
	if path := v.GetString("log-file"); path != "" {
		logPath = &path
	}
	commonlog.Configure(verbosity, logPath)

	if used := v.ConfigFileUsed(); used != "" {
		log.Debugf("using config file %s", used)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of skate",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "skate v%s (frame protocol v%d)\n", version, streamVersion)
		},
	}
}

// readInput returns the named file, or stdin when args is empty or "-".
func readInput(cmd *cobra.Command, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "<stdin>", nil, fmt.Errorf("read input: %w", err)
		}
		return "<stdin>", data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return args[0], nil, err
	}
	return args[0], data, nil
}

func openInput(cmd *cobra.Command, args []string) (string, io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return "<stdin>", io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return args[0], nil, err
	}
	return args[0], f, nil
}

func writeLine(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
