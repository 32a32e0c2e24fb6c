package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"framelake/config"
	"framelake/dbread"
	"framelake/frame"
)

// printFrame dumps a frame as a tab-separated table.
func printFrame(f *frame.Frame) {
	fmt.Println(strings.Join(f.Columns(), "\t"))
	fmt.Println(strings.Repeat("-", 60))
	for r := 0; r < f.Height(); r++ {
		parts := make([]string, f.Width())
		for c := 0; c < f.Width(); c++ {
			parts[c] = fmt.Sprintf("%v", f.ColumnAt(c).Value(r))
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	fmt.Println()
}

// seedDemo populates the demo database with two small tables.
func seedDemo(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE customers (id INTEGER, name TEXT, city TEXT)`,
		`INSERT INTO customers VALUES
			(1, 'ada', 'london'),
			(2, 'grace', 'new york'),
			(3, 'edsger', 'rotterdam')`,
		`CREATE TABLE orders (id INTEGER, customer_id INTEGER, amount REAL)`,
		`INSERT INTO orders VALUES
			(100, 1, 9.5),
			(101, 1, 12.0),
			(102, 3, 7.25),
			(103, 9, 3.0)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

func run() error {
	_ = config.LoadDotEnv(".env")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := seedDemo(db); err != nil {
		return err
	}

	ctx := context.Background()

	// 1. Eager reads
	customers, err := dbread.ReadDatabase(ctx, "SELECT id, name, city FROM customers", db,
		dbread.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Println("customers:")
	printFrame(customers)

	orders, err := dbread.ReadDatabase(ctx, "SELECT customer_id AS id, amount FROM orders", db,
		dbread.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Println("orders:")
	printFrame(orders)

	// 2. Right join: every order, padded with customer info where it exists
	joined, err := customers.Join(orders, frame.JoinOptions{
		On:            []string{"id"},
		How:           frame.JoinRight,
		MaintainOrder: frame.OrderRight,
	})
	if err != nil {
		return err
	}
	fmt.Println("customers right-joined to orders:")
	printFrame(joined)

	// 3. Batched read
	stream, err := dbread.ReadDatabaseBatches(ctx, "SELECT id, amount FROM orders", db,
		dbread.WithBatchSize(2), dbread.WithLogger(logger))
	if err != nil {
		return err
	}
	defer stream.Close()
	n := 0
	for {
		chunk, err := stream.Next()
		if err != nil {
			break
		}
		n++
		logger.Info("pulled chunk", "n", n, "rows", chunk.Height())
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}
