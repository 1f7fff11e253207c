// Package build runs the three table passes that add informational skills to
// the client data.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/la2dat/internal/config"
	"github.com/udisondev/la2dat/internal/dat"
	"github.com/udisondev/la2dat/internal/format"
	"github.com/udisondev/la2dat/internal/npcdata"
	"github.com/udisondev/la2dat/internal/patch"
	"github.com/udisondev/la2dat/internal/rates"
)

// descriptorVariant names the regenerated npcgrp descriptor.
const descriptorVariant = "custom"

// Codec converts a table between its stored form and decoded text lines.
type Codec interface {
	Decode(ctx context.Context, dir, file string) ([]string, error)
	Encode(ctx context.Context, dir, file string, lines []string, descriptor string) error
}

// Provider supplies the NPC snapshots of a build.
type Provider interface {
	Snapshot(ctx context.Context) (npcdata.Set, error)
}

// TableResult summarizes one table pass.
type TableResult struct {
	File       string
	Records    int    // data records read, header excluded
	Added      int    // records appended
	Patched    int    // records modified in place
	Descriptor string // descriptor the table was encoded with
}

// Report summarizes a build.
type Report struct {
	NPCs      int
	Keys      int
	NpcGrp    TableResult
	SkillGrp  TableResult
	SkillName TableResult
	Slots     patch.ExpandResult
	Manifest  Manifest
}

// Pipeline patches npcgrp, skillgrp and skillname-e from one NPC snapshot.
type Pipeline struct {
	cfg       config.Builder
	codec     Codec
	provider  Provider
	formatter format.Formatter
	scaler    rates.Scaler
}

// New validates cfg and creates a Pipeline. No table is read here.
func New(cfg config.Builder, codec Codec, provider Provider) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := format.ParseDisplayMode(cfg.DropDisplay)
	if err != nil {
		return nil, err
	}
	formatter, err := format.NewFormatter(mode, cfg.Places)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		codec:     codec,
		provider:  provider,
		formatter: formatter,
		scaler:    rates.NewScaler(cfg.VIP),
	}, nil
}

// Run builds the patched tables into the output directory.
//
// The passes run concurrently. The first failure cancels the others; tables
// already written by a finished pass are left in place.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	set, err := p.provider.Snapshot(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("loading npc snapshots: %w", err)
	}

	a, err := patch.Assign(set, p.cfg.Categories)
	if err != nil {
		return Report{}, fmt.Errorf("assigning skill keys: %w", err)
	}
	slog.Info("skill keys assigned", "npcs", len(a.NPCs()), "keys", len(a.Keys()))

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("creating output dir: %w", err)
	}

	report := Report{NPCs: len(a.NPCs()), Keys: len(a.Keys())}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, slots, err := p.npcgrp(gctx, a)
		report.NpcGrp, report.Slots = res, slots
		return err
	})
	g.Go(func() error {
		res, err := p.skillgrp(gctx, a)
		report.SkillGrp = res
		return err
	})
	g.Go(func() error {
		res, err := p.skillname(gctx, a)
		report.SkillName = res
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	written := []string{p.cfg.Tables.NpcGrp, p.cfg.Tables.SkillGrp, p.cfg.Tables.SkillName}
	if report.Slots.Widened() {
		written = append(written, filepath.Base(report.NpcGrp.Descriptor))
	}
	manifest, err := NewManifest(p.cfg.OutputDir, written)
	if err != nil {
		return Report{}, err
	}
	if err := manifest.Write(p.cfg.OutputDir); err != nil {
		return Report{}, err
	}
	report.Manifest = manifest

	slog.Info("build finished",
		"npcs", report.NPCs,
		"keys", report.Keys,
		"output", p.cfg.OutputDir,
		"duration", time.Since(start))
	return report, nil
}

func (p *Pipeline) npcgrp(ctx context.Context, a *patch.Assignment) (TableResult, patch.ExpandResult, error) {
	file := p.cfg.Tables.NpcGrp
	res := TableResult{File: file, Descriptor: p.descriptor(file)}

	records, err := p.decode(ctx, file)
	if err != nil {
		return res, patch.ExpandResult{}, err
	}

	expander := patch.SlotExpander{Array: p.cfg.Slots.Array, Capacity: p.cfg.Slots.Capacity}
	out, slots, err := expander.Expand(records, a)
	if err != nil {
		return res, patch.ExpandResult{}, fmt.Errorf("%s: %w", file, err)
	}
	res.Records = len(records) - 1
	res.Patched = slots.Patched

	if slots.Widened() {
		res.Descriptor, err = p.regenerateDescriptor(file, slots)
		if err != nil {
			return res, slots, err
		}
	}

	if err := p.codec.Encode(ctx, p.cfg.OutputDir, file, dat.Lines(out), res.Descriptor); err != nil {
		return res, slots, fmt.Errorf("%s: encoding: %w", file, err)
	}
	slog.Info("table patched",
		"table", file,
		"records", res.Records,
		"patched", res.Patched,
		"slot_capacity", slots.NewCapacity,
		"widened", slots.Widened())
	return res, slots, nil
}

func (p *Pipeline) skillgrp(ctx context.Context, a *patch.Assignment) (TableResult, error) {
	return p.appendPass(ctx, p.cfg.Tables.SkillGrp, a, patch.DefinitionAppender{}.Append)
}

func (p *Pipeline) skillname(ctx context.Context, a *patch.Assignment) (TableResult, error) {
	appender := patch.TextAppender{Formatter: p.formatter, Scaler: p.scaler}
	return p.appendPass(ctx, p.cfg.Tables.SkillName, a, appender.Append)
}

type appendFunc func([]dat.Record, *patch.Assignment) ([]dat.Record, error)

func (p *Pipeline) appendPass(ctx context.Context, file string, a *patch.Assignment, appendRecords appendFunc) (TableResult, error) {
	res := TableResult{File: file, Descriptor: p.descriptor(file)}

	records, err := p.decode(ctx, file)
	if err != nil {
		return res, err
	}
	out, err := appendRecords(records, a)
	if err != nil {
		return res, fmt.Errorf("%s: %w", file, err)
	}
	res.Records = len(records) - 1
	res.Added = len(out) - len(records)

	if err := p.codec.Encode(ctx, p.cfg.OutputDir, file, dat.Lines(out), res.Descriptor); err != nil {
		return res, fmt.Errorf("%s: encoding: %w", file, err)
	}
	slog.Info("table patched", "table", file, "records", res.Records, "added", res.Added)
	return res, nil
}

func (p *Pipeline) decode(ctx context.Context, file string) ([]dat.Record, error) {
	lines, err := p.codec.Decode(ctx, p.cfg.SourceDir, file)
	if err != nil {
		return nil, fmt.Errorf("%s: decoding: %w", file, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w: no header", file, dat.ErrMalformedRecord)
	}
	slog.Debug("table decoded", "table", file, "lines", len(lines))
	return dat.ParseRecords(lines), nil
}

// descriptor returns the stock descriptor path of a table.
func (p *Pipeline) descriptor(file string) string {
	return filepath.Join(p.cfg.Tools.DescriptorDir, dat.DescriptorName(file, ""))
}

// regenerateDescriptor writes a descriptor declaring the widened slot array
// into the output directory and returns its path.
func (p *Pipeline) regenerateDescriptor(file string, slots patch.ExpandResult) (string, error) {
	src, err := os.ReadFile(p.descriptor(file))
	if err != nil {
		return "", fmt.Errorf("%s: reading descriptor: %w", file, err)
	}
	regenerated, err := dat.RegenerateDescriptor(src, p.cfg.Slots.Array, slots.OldCapacity, slots.NewCapacity)
	if err != nil {
		return "", fmt.Errorf("%s: %w", file, err)
	}

	path := filepath.Join(p.cfg.OutputDir, dat.DescriptorName(file, descriptorVariant))
	if err := os.WriteFile(path, regenerated, 0o644); err != nil {
		return "", fmt.Errorf("%s: writing descriptor: %w", file, err)
	}
	slog.Info("descriptor regenerated",
		"descriptor", path,
		"array", p.cfg.Slots.Array,
		"old_capacity", slots.OldCapacity,
		"new_capacity", slots.NewCapacity)
	return path, nil
}
