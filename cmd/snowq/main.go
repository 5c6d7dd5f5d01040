// snowq runs one read-only query against the configured Snowflake warehouse
// from the shell, through the same statement guard and gateway the MCP
// server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/olekukonko/tablewriter"
	flag "github.com/spf13/pflag"

	sqltools "github.com/yuliamininberg/snowflake-mcp1/internal/mcp/tools/sql"
	"github.com/yuliamininberg/snowflake-mcp1/internal/mcp/warehouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	formatFlag := flag.String("format", "table", "output format (table, json)")
	timeoutFlag := flag.Duration("timeout", 60*time.Second, "query timeout")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: snowq [flags] <sql>")
	}

	logLevel := slog.LevelInfo
	if *verboseFlag {
		logLevel = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	}))

	if err := sqltools.Classify(query); err != nil {
		return err
	}

	cfg, err := warehouse.ConfigFromEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	db, err := warehouse.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open warehouse: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close warehouse", "error", err)
		}
	}()

	result, err := warehouse.Execute(ctx, log, db, query)
	if err != nil {
		return err
	}

	switch *formatFlag {
	case "json":
		return printJSON(result)
	case "table":
		printTable(result)
		return nil
	default:
		return fmt.Errorf("invalid format: %s", *formatFlag)
	}
}

func printJSON(result *warehouse.ResultSet) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Rows); err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	return nil
}

func printTable(result *warehouse.ResultSet) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(result.Columns)

	for _, row := range result.Rows {
		cells := make([]string, len(row.Values()))
		for i, val := range row.Values() {
			if val == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprintf("%v", val)
		}
		table.Append(cells)
	}

	table.Render()
	fmt.Printf("(%d rows)\n", result.Count)
}
