package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owacoder/skate-sub000/bridge"
	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/value"
)

func readOptions(v *viper.Viper) json.ReadOptions {
	opts := json.DefaultReadOptions()
	opts.MaxDepth = v.GetInt("max-depth")
	opts.AllowNonFinite = v.GetBool("allow-non-finite")
	return opts
}

func newFmtCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Reformat a JSON document",
		Long: `Reformat a JSON document. Numbers keep their exact value and kind;
object members are written sorted by key.`,
		Example: `  echo '{"b":1,"a":[1,2]}' | skate fmt --compact
  # {"a":[1,2],"b":1}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var doc value.Value
			if err := json.UnmarshalWithOptions(data, &doc, readOptions(v)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			opts := json.DefaultWriteOptions()
			opts.MaxDepth = v.GetInt("max-depth")
			opts.Indent = v.GetInt("indent")
			opts.ASCII = v.GetBool("ascii")
			opts.AllowNonFinite = v.GetBool("allow-non-finite")
			if v.GetBool("compact") {
				opts.Indent = 0
			}
			out, err := json.MarshalWithOptions(doc, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			log.Debugf("formatted %s: %d -> %d bytes", name, len(data), len(out))
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Int("indent", 2, "spaces per nesting level")
	cmd.Flags().Bool("ascii", false, "escape non-ASCII characters as \\uXXXX")
	cmd.Flags().Bool("compact", false, "write everything on one line")
	cmd.Flags().Bool("allow-non-finite", false, "accept and write Infinity and NaN")
	return cmd
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a JSON document",
		Long: `Validate that the input holds exactly one well-formed JSON document.
On failure the error names the offset where decoding stopped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if err := json.Validate(data, readOptions(v)); err != nil {
				log.Debugf("%s: invalid after reading %d bytes", name, len(data))
				return fmt.Errorf("%s: %w", name, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			return err
		},
	}
	cmd.Flags().Bool("allow-non-finite", false, "accept Infinity and NaN")
	return cmd
}

func newConvertCmd(v *viper.Viper) *cobra.Command {
	names := strings.Join(bridge.Names(), ", ")
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between formats",
		Long: fmt.Sprintf(`Convert a document between formats (%s).

Conversion fails rather than approximating when the target cannot hold
a value: TOML has no null, and protobuf numbers are doubles.`, names),
		Example: `  echo '{"name":"a","ports":[80,443]}' | skate convert --to yaml
  skate convert --from yaml --to toml config.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bridge.Options{
				MaxDepth:       v.GetInt("max-depth"),
				Indent:         v.GetInt("indent"),
				ASCII:          v.GetBool("ascii"),
				AllowNonFinite: v.GetBool("allow-non-finite"),
			}
			from, err := bridge.New(v.GetString("from"), opts)
			if err != nil {
				return err
			}
			to, err := bridge.New(v.GetString("to"), opts)
			if err != nil {
				return err
			}

			name, data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := bridge.Convert(data, from, to)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			log.Debugf("converted %s from %s to %s", name, from.Name(), to.Name())

			// Binary formats go out untouched.
			if to.Name() == "cbor" || to.Name() == "proto" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("from", "json", "input format ("+names+")")
	cmd.Flags().String("to", "loose", "output format ("+names+")")
	cmd.Flags().Int("indent", 0, "spaces per nesting level for JSON and loose output")
	cmd.Flags().Bool("ascii", false, "escape non-ASCII characters in JSON output")
	cmd.Flags().Bool("allow-non-finite", false, "accept and write Infinity and NaN in JSON")
	return cmd
}
