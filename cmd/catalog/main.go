// Package main implements a command line driver for the product catalog.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/gocatalog/internal/bootstrap"
	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/abgdnv/gocatalog/internal/product/service"
	"github.com/abgdnv/gocatalog/internal/product/store"
)

const usage = `usage: catalog <command> [flags]

commands:
  list                          print all products
  get    -id N | -code C        print one product
  add    -json '{...}'          create a product (title, description, price, img, code, stock)
  update -id N -json '{...}'    apply a partial update
  delete -id N                  remove a product
  reload                        re-read the catalog file and print it

environment:
  CATALOG_SVC_CATALOG_PATH      catalog file (default products.json)
  CATALOG_SVC_LOG_LEVEL         debug, info, warn or error (default info)`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Printf("catalog: %v", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run loads the configuration, opens the catalog and executes a single command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := bootstrap.NewLogger(cfg.Log.Level, stderr)
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "config", cfg.String())

	fileStore, err := store.Open(ctx, cfg.Catalog.Path, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	svc := service.NewService(fileStore, logger)

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "list":
		return runList(ctx, svc, stdout)
	case "get":
		return runGet(ctx, svc, cmdArgs, stdout)
	case "add":
		return runAdd(ctx, svc, cmdArgs, stdout)
	case "update":
		return runUpdate(ctx, svc, cmdArgs, stdout)
	case "delete":
		return runDelete(ctx, svc, cmdArgs)
	case "reload":
		return runReload(ctx, svc, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runList(ctx context.Context, svc service.ProductService, stdout io.Writer) error {
	products, err := svc.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(stdout, products)
}

func runGet(ctx context.Context, svc service.ProductService, args []string, stdout io.Writer) error {
	fs := newFlagSet("get")
	id := fs.Int64("id", 0, "product ID")
	code := fs.String("code", "", "product code")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		product *service.ProductDto
		err     error
	)
	switch {
	case *id > 0:
		product, err = svc.GetByID(ctx, *id)
	case *code != "":
		product, err = svc.GetByCode(ctx, *code)
	default:
		return fmt.Errorf("%w: get needs -id or -code", errUsage)
	}
	if err != nil {
		return err
	}
	return printJSON(stdout, product)
}

func runAdd(ctx context.Context, svc service.ProductService, args []string, stdout io.Writer) error {
	fs := newFlagSet("add")
	payload := fs.String("json", "", "product as a JSON object")
	if err := parse(fs, args); err != nil {
		return err
	}

	var dto service.ProductCreateDto
	if err := decode(*payload, &dto); err != nil {
		return err
	}
	created, err := svc.Add(ctx, dto)
	if err != nil {
		return err
	}
	return printJSON(stdout, created)
}

func runUpdate(ctx context.Context, svc service.ProductService, args []string, stdout io.Writer) error {
	fs := newFlagSet("update")
	id := fs.Int64("id", 0, "product ID")
	payload := fs.String("json", "", "partial product as a JSON object")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: update needs -id", errUsage)
	}

	var patch service.ProductPatchDto
	if err := decode(*payload, &patch); err != nil {
		return err
	}
	updated, err := svc.Update(ctx, *id, patch)
	if err != nil {
		return err
	}
	return printJSON(stdout, updated)
}

func runDelete(ctx context.Context, svc service.ProductService, args []string) error {
	fs := newFlagSet("delete")
	id := fs.Int64("id", 0, "product ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: delete needs -id", errUsage)
	}
	return svc.Delete(ctx, *id)
}

func runReload(ctx context.Context, svc service.ProductService, stdout io.Writer) error {
	if err := svc.Reload(ctx); err != nil {
		return err
	}
	return runList(ctx, svc, stdout)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	return nil
}

func decode(payload string, v any) error {
	if payload == "" {
		return fmt.Errorf("%w: -json is required", errUsage)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: invalid -json payload: %w", errUsage, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
