// dbquery runs a SELECT against a configured datasource and prints the
// materialized page.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dbcore/pkg/config"
	"github.com/ruslano69/dbcore/pkg/dao"
	"github.com/ruslano69/dbcore/pkg/database"
	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/logging"
	"github.com/ruslano69/dbcore/pkg/recordset"

	// Драйверы регистрируются в init()
	_ "github.com/ruslano69/dbcore/pkg/datasource/mssql"
	_ "github.com/ruslano69/dbcore/pkg/datasource/mysql"
	_ "github.com/ruslano69/dbcore/pkg/datasource/postgres"
	_ "github.com/ruslano69/dbcore/pkg/datasource/sqlite"
)

const version = "1.0.0"

func main() {
	flags := ParseFlags()

	if *flags.Version {
		fmt.Printf("dbquery %s\n", version)
		return
	}
	if *flags.SQL == "" {
		fatal("-sql is required")
	}

	cfg, err := config.Load(*flags.Config)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if *flags.LogLevel != "" {
		cfg.Logging.Level = *flags.LogLevel
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flags, logger, os.Stdout); err != nil {
		fatal("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, flags *Flags, logger zerolog.Logger, out io.Writer) error {
	if err := cfg.RegisterDatasources(nil); err != nil {
		return err
	}
	defer datasource.CloseAll()

	name := *flags.Datasource
	if name == "" {
		if len(cfg.Datasources) == 0 {
			return fmt.Errorf("no datasources configured")
		}
		name = cfg.Datasources[0].Name
	}

	m := database.NewConnectionManager("dbquery",
		database.WithDatasource(name),
		database.WithLogger(logger),
		database.WithRetry(cfg.RetryPolicy()),
		database.WithFetchSize(cfg.EffectiveFetchSize()),
	)
	defer m.Release()

	if err := m.Connect(ctx); err != nil {
		return err
	}

	rs, err := dao.NewSelectSupport(m).SelectPage(ctx, *flags.SQL, *flags.Page, *flags.Size, splitArgs(*flags.Args)...)
	if err != nil {
		return err
	}

	if err := printRecordSet(out, rs); err != nil {
		return err
	}
	if *flags.Checksum {
		fmt.Fprintf(out, "checksum: %s\n", rs.Checksum())
	}
	return nil
}

// printRecordSet выводит строки таблицей и итог
func printRecordSet(out io.Writer, rs *recordset.RecordSet) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	cols := rs.Columns()
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	for rs.Next() {
		values := make([]string, len(cols))
		for i, col := range cols {
			null, err := rs.IsNull(rs.Position(), col)
			if err != nil {
				return err
			}
			if null {
				values[i] = "NULL"
				continue
			}
			if values[i], err = rs.Text(col); err != nil {
				return err
			}
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if rs.Page() > 0 {
		fmt.Fprintf(out, "\npage %d (size %d): %d of %d rows\n", rs.Page(), rs.PageSize(), rs.RowCount(), rs.TotalRows())
	} else {
		fmt.Fprintf(out, "\n%d rows\n", rs.RowCount())
	}
	return nil
}

func splitArgs(s string) []any {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	args := make([]any, len(parts))
	for i, p := range parts {
		args[i] = strings.TrimSpace(p)
	}
	return args
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
