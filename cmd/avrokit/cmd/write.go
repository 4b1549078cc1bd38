package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/config"
	ocf "github.com/ssargent/avrokit/pkg/container"
	"github.com/ssargent/avrokit/pkg/value"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write JSON records from stdin into a container file",
	Long: `Read records in the Avro JSON encoding from stdin, one JSON document
after another, and write them into an object container file.

Examples:
  avrokit write --schema event.avsc < events.jsonl
  avrokit write --schema event.avsc --codec deflate --out events.avro < events.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := writeOptions{}
		opts.schemaPath, _ = cmd.Flags().GetString("schema")
		opts.codec, _ = cmd.Flags().GetString("codec")
		opts.out, _ = cmd.Flags().GetString("out")
		opts.blockCount, _ = cmd.Flags().GetInt("block-count")
		opts.syncMarker, _ = cmd.Flags().GetString("sync-marker")

		path, n, err := runWrite(cmd.InOrStdin(), container.GetConfig(), container.GetLogger(), opts)
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %d records to %s\n", n, path)
		return nil
	},
}

type writeOptions struct {
	schemaPath string
	codec      string
	out        string
	blockCount int
	syncMarker string
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().String("schema", "", "Schema file (required)")
	writeCmd.Flags().String("codec", "", "Block codec: null, deflate or snappy (default from config)")
	writeCmd.Flags().StringP("out", "o", "", "Output file (default <ksuid>.avro)")
	writeCmd.Flags().Int("block-count", 0, "Flush a block after this many records")
	writeCmd.Flags().String("sync-marker", "", "Sync marker as 32 hex digits, for reproducible output")
	if err := writeCmd.MarkFlagRequired("schema"); err != nil {
		panic(err)
	}
}

// runWrite streams JSON documents from in into a new container file and
// returns its path and the number of records written. On error the output
// file is removed.
func runWrite(in io.Reader, cfg *config.Config, logger *slog.Logger, opts writeOptions) (string, int, error) {
	s, err := loadSchema(opts.schemaPath)
	if err != nil {
		return "", 0, err
	}

	writerConfig, err := cfg.WriterConfig(logger)
	if err != nil {
		return "", 0, err
	}
	if opts.codec != "" {
		if writerConfig.Codec, err = codec.ByName(opts.codec); err != nil {
			return "", 0, err
		}
	}
	if opts.blockCount > 0 {
		writerConfig.BlockCount = opts.blockCount
	}
	if opts.syncMarker != "" {
		marker, err := ocf.ParseSyncMarker(opts.syncMarker)
		if err != nil {
			return "", 0, err
		}
		writerConfig.SyncMarker = &marker
	}

	path := opts.out
	if path == "" {
		path = ksuid.New().String() + ".avro"
	}

	fw, err := ocf.CreateFile(s, ocf.FileConfig{
		FilePath: path,
		Writer:   writerConfig,
	})
	if err != nil {
		return "", 0, err
	}

	// a failed write leaves no partial container behind
	abort := func(err error) (string, int, error) {
		fw.Close()
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("could not remove partial container", slog.String("path", path), slog.Any("error", rmErr))
		}
		return "", 0, err
	}

	dec := json.NewDecoder(in)
	dec.UseNumber()
	n := 0
	for {
		var record interface{}
		if err := dec.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return abort(fmt.Errorf("record %d: invalid JSON: %w", n, err))
		}
		v, err := value.FromNative(s, record)
		if err != nil {
			return abort(fmt.Errorf("record %d: %w", n, err))
		}
		if _, err := fw.AppendValue(v); err != nil {
			return abort(fmt.Errorf("record %d: %w", n, err))
		}
		n++
	}

	if err := fw.Close(); err != nil {
		os.Remove(path)
		return "", 0, err
	}
	logger.Debug("container written", slog.String("path", path), slog.Int("records", n))
	return path, n, nil
}
