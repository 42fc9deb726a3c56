package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataplume/arrowbridge/pkg/cdata"
	"github.com/dataplume/arrowbridge/pkg/config"
	"github.com/dataplume/arrowbridge/pkg/logger"
	"github.com/dataplume/arrowbridge/pkg/types"
	"github.com/dataplume/arrowbridge/pkg/vector"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "arrowbridge",
		Short: "Arrowbridge - zero-copy columnar interchange bridge",
		Long: `Arrowbridge converts in-process columnar vectors and types to and from
the C data interchange format without copying buffer memory. The CLI is a
demonstration caller; the bridge itself lives in pkg/cdata.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Arrowbridge v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newInspectCmd())
	root.AddCommand(newRoundtripCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges file config (if any) over defaults, then flag overrides.
func loadConfig(configFile, logLevel string, rows int) (*config.ToolConfig, error) {
	cfg := config.Default()
	if configFile != "" {
		if err := config.Load(configFile, cfg); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if rows > 0 {
		cfg.Demo.Rows = rows
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newInspectCmd prints the schema tree a type exports to, as JSON.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the exported schema for the demo struct type",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := types.StructOf(
				types.Field{Name: "id", Type: types.Int64Type()},
				types.Field{Name: "score", Type: types.Float64Type()},
				types.Field{Name: "active", Type: types.BoolType()},
				types.Field{Name: "tags", Type: types.ListOf(types.StringType())},
			)

			var node cdata.SchemaNode
			if err := cdata.ExportType(t, &node); err != nil {
				return err
			}
			defer node.Release(&node)

			imported, err := cdata.ImportType(&node)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(imported, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// newRoundtripCmd exports a sample vector, imports it back in owning mode and
// prints what came through.
func newRoundtripCmd() *cobra.Command {
	var configFile, logLevel string
	var rows int

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Export a sample vector and import it back without copying",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile, logLevel, rows)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			log := logger.With(zap.String("command", "roundtrip"))
			alloc := memory.NewGoAllocator()

			b, err := vector.NewBuilder(alloc, types.Int64Type())
			if err != nil {
				return err
			}
			for i := 0; i < cfg.Demo.Rows; i++ {
				if i%5 == 4 {
					b.AppendNull()
					continue
				}
				if err := b.AppendInt64(int64(i * i)); err != nil {
					return err
				}
			}
			source, err := b.Build()
			if err != nil {
				return err
			}
			defer source.Release()

			var schema cdata.SchemaNode
			var array cdata.ArrayNode
			if err := cdata.ExportType(source.Type(), &schema); err != nil {
				return err
			}
			if err := cdata.ExportVector(source, &array); err != nil {
				schema.Release(&schema)
				return err
			}
			log.Info("exported vector",
				zap.Int64("length", array.Length),
				zap.Int64("null_count", array.NullCount))

			imported, err := cdata.ImportVectorOwned(&schema, &array)
			if err != nil {
				schema.Release(&schema)
				array.Release(&array)
				return err
			}
			defer imported.Release()

			log.Info("imported vector in owning mode",
				zap.Bool("schema_released", schema.Released()),
				zap.Bool("array_released", array.Released()))

			values := make([]any, imported.Len())
			for i := range values {
				if imported.IsNull(i) {
					continue
				}
				values[i] = imported.Int64Value(i)
			}
			out, err := json.Marshal(map[string]any{
				"type":       imported.Type(),
				"length":     imported.Len(),
				"null_count": imported.NullCount(),
				"values":     values,
			})
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.Flags().IntVar(&rows, "rows", 0, "Number of demo rows to generate")
	return cmd
}

// newConfigCmd writes the default configuration to a file.
func newConfigCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(out, config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote default config to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "arrowbridge.yaml", "Output path")
	return cmd
}
