package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/avrokit/pkg/schema"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Parse a schema and print its canonical form",
	Long: `Parse an Avro schema file and print its full name, fingerprint and
Parsing Canonical Form.

Example:
  avrokit schema event.avsc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchema(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(out io.Writer, path string) error {
	s, err := loadSchema(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "name:        %s\n", s.FullName())
	fmt.Fprintf(out, "fingerprint: %016x\n", s.Fingerprint())
	fmt.Fprintf(out, "canonical:   %s\n", s.Canonical())
	return nil
}

func loadSchema(path string) (*schema.Schema, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	s, err := schema.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return s, nil
}
