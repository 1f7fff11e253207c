// datpatch adds informational skills (NPC stats, drop list, spoil list) to the
// client tables npcgrp.dat, skillgrp.dat and skillname-e.dat.
//
// Usage:
//
//	go run ./cmd/datpatch
//	go run ./cmd/datpatch -vip -drop_display fraction
//	go run ./cmd/datpatch -provider postgres -no-spoils
//	go run ./cmd/datpatch -store
//	go run ./cmd/datpatch -verify
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/la2dat/internal/build"
	"github.com/udisondev/la2dat/internal/codec"
	"github.com/udisondev/la2dat/internal/config"
	"github.com/udisondev/la2dat/internal/npcdata"
	"github.com/udisondev/la2dat/internal/npcdata/pgstore"
)

const DefaultConfigPath = "config/datpatch.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("interrupted", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfgPath := DefaultConfigPath
	if p := os.Getenv("LA2DAT_CONFIG"); p != "" {
		cfgPath = p
	}
	if opts.configPath != "" {
		cfgPath = opts.configPath
	}
	cfg, err := config.LoadBuilder(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts.apply(&cfg)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	// Nothing is read before the configuration is known to be usable.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", cfgPath, err)
	}
	if err := opts.check(cfg); err != nil {
		return err
	}

	if opts.verify {
		return verify(cfg.OutputDir)
	}

	slog.Info("datpatch starting",
		"config", cfgPath,
		"source", cfg.SourceDir,
		"output", cfg.OutputDir,
		"provider", cfg.Provider,
		"codec", cfg.Codec,
		"drop_display", cfg.DropDisplay,
		"vip", cfg.VIP.Enabled)

	provider, closeProvider, err := newProvider(ctx, cfg, opts.store)
	if err != nil {
		return err
	}
	defer closeProvider()

	pipeline, err := build.New(cfg, newCodec(cfg), provider)
	if err != nil {
		return err
	}
	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("tables written",
		"npcgrp_patched", report.NpcGrp.Patched,
		"skillgrp_added", report.SkillGrp.Added,
		"skillname_added", report.SkillName.Added,
		"slot_capacity", report.Slots.NewCapacity,
		"manifest", build.ManifestFile)
	return nil
}

func newCodec(cfg config.Builder) build.Codec {
	if cfg.Codec == config.CodecText {
		return codec.Text{}
	}
	return codec.NewExec(cfg.Tools)
}

// newProvider opens the configured snapshot source. With store set, XML
// snapshots are also saved to PostgreSQL.
func newProvider(ctx context.Context, cfg config.Builder, store bool) (build.Provider, func(), error) {
	noop := func() {}

	if cfg.Provider == config.ProviderXML && !store {
		return npcdata.NewXMLProvider(cfg.NpcDir, cfg.ItemDir), noop, nil
	}

	db, err := pgstore.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, noop, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, noop, err
	}
	slog.Info("snapshot database ready", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

	if cfg.Provider == config.ProviderPostgres {
		return db, db.Close, nil
	}
	return storingProvider{
		src:   npcdata.NewXMLProvider(cfg.NpcDir, cfg.ItemDir),
		store: db,
	}, db.Close, nil
}

// storingProvider saves every snapshot it hands out.
type storingProvider struct {
	src   build.Provider
	store *pgstore.Store
}

func (p storingProvider) Snapshot(ctx context.Context) (npcdata.Set, error) {
	set, err := p.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(ctx, set); err != nil {
		return nil, fmt.Errorf("storing snapshots: %w", err)
	}
	slog.Info("snapshots stored", "npcs", len(set))
	return set, nil
}

func verify(dir string) error {
	m, err := build.ReadManifest(dir)
	if err != nil {
		return err
	}
	if err := m.Verify(dir); err != nil {
		return err
	}
	slog.Info("manifest verified", "dir", dir, "files", len(m.Files))
	return nil
}
