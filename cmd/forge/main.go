// Package main provides the forge binary that compiles creature YAML
// definitions into world database SQL, client DBC files, and Lua AI
// scripts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/build"
	"github.com/cory-johannsen/worldforge/internal/config"
	"github.com/cory-johannsen/worldforge/internal/content"
	"github.com/cory-johannsen/worldforge/internal/emit/luagen"
	"github.com/cory-johannsen/worldforge/internal/emit/sqlgen"
	"github.com/cory-johannsen/worldforge/internal/observability"
	"github.com/cory-johannsen/worldforge/internal/pipeline"
	"github.com/cory-johannsen/worldforge/internal/schema"
	"github.com/cory-johannsen/worldforge/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/forge.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "creature YAML directory; overrides build.content_dir")
	outputDir := flag.String("out", "", "artifact output directory; overrides build.output_dir")
	dbcDir := flag.String("dbc-in", "", "stock client data directory; overrides build.dbc_dir")
	apply := flag.Bool("apply", false, "execute the generated SQL against the world database")
	seedFromDB := flag.Bool("seed-from-db", false, "raise id watermarks from live world tables before compiling")
	dryRun := flag.Bool("dry-run", false, "compile and validate only; write no artifacts")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *contentDir != "" {
		cfg.Build.ContentDir = *contentDir
	}
	if *outputDir != "" {
		cfg.Build.OutputDir = *outputDir
	}
	if *dbcDir != "" {
		cfg.Build.DBCDir = *dbcDir
	}
	if *apply {
		cfg.Build.Apply = true
	}
	if *seedFromDB {
		cfg.Build.SeedFromDB = true
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting content build",
		zap.String("content_dir", cfg.Build.ContentDir),
		zap.String("output_dir", cfg.Build.OutputDir),
		zap.Bool("dry_run", *dryRun),
	)

	registry := schema.Builtin()

	// The database is only touched when seeding watermarks or applying
	// output; a plain compile never needs it.
	var pool *postgres.Pool
	if cfg.Build.SeedFromDB || (cfg.Build.Apply && !*dryRun) {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	seeds := make(map[string]uint32, len(cfg.Build.Seeds))
	for ns, base := range cfg.Build.Seeds {
		seeds[ns] = base
	}
	if cfg.Build.SeedFromDB {
		repo := postgres.NewWorldRepository(pool.Pool)
		watermarks := []struct {
			namespace string
			table     string
			column    string
		}{
			{schema.NSCreatureEntry, "creature_template", "entry"},
			{schema.NSSpawnGUID, "creature", "guid"},
			{schema.NSPathID, "waypoint_data", "id"},
		}
		for _, w := range watermarks {
			high, err := repo.MaxID(ctx, w.table, w.column)
			if err != nil {
				logger.Fatal("reading id watermark",
					zap.String("table", w.table), zap.Error(err))
			}
			if high+1 > seeds[w.namespace] {
				seeds[w.namespace] = high + 1
				logger.Info("watermark raised from database",
					zap.String("namespace", w.namespace),
					zap.Uint32("base", high+1),
				)
			}
		}
	}

	session, err := build.NewSession(registry, logger, seeds)
	if err != nil {
		logger.Fatal("creating build session", zap.Error(err))
	}

	var (
		defs    []*content.Creature
		results []*content.Result
		stmts   []string
	)

	p := pipeline.New(logger)

	if cfg.Build.DBCDir != "" {
		p.Add("load client data", func(ctx context.Context) error {
			for _, rt := range registry.Types() {
				if rt.Storage != schema.StorageBinary {
					continue
				}
				path := filepath.Join(cfg.Build.DBCDir, rt.File)
				data, err := os.ReadFile(path)
				if errors.Is(err, fs.ErrNotExist) {
					logger.Warn("stock client file missing, starting empty",
						zap.String("file", rt.File))
					continue
				}
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				if _, err := session.LoadBinary(rt.Name, data); err != nil {
					return err
				}
			}
			return nil
		})
	}

	p.Add("load content", func(ctx context.Context) error {
		var err error
		defs, err = content.LoadCreatures(cfg.Build.ContentDir)
		if err != nil {
			return err
		}
		logger.Info("content loaded", zap.Int("creatures", len(defs)))
		return nil
	})

	p.Add("compile", func(ctx context.Context) error {
		var err error
		results, err = content.NewCompiler(session, logger).Compile(defs)
		return err
	})

	p.Add("validate", func(ctx context.Context) error {
		report := session.Validate()
		for _, w := range report.Warnings {
			logger.Warn("validation warning", zap.String("issue", w.String()))
		}
		if !report.Valid() {
			for _, e := range report.Errors {
				logger.Error("validation error", zap.String("issue", e.String()))
			}
			return fmt.Errorf("%d validation error(s)", len(report.Errors))
		}
		return nil
	})

	if !*dryRun {
		p.Add("emit sql", func(ctx context.Context) error {
			gen := sqlgen.NewGenerator(logger)
			var err error
			stmts, err = gen.Statements(session)
			if err != nil {
				return err
			}
			script, err := gen.Script(session)
			if err != nil {
				return err
			}
			dir := filepath.Join(cfg.Build.OutputDir, "sql")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, "world_content.sql")
			if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
				return err
			}
			logger.Info("sql written",
				zap.String("path", path),
				zap.Int("statements", len(stmts)),
			)
			return nil
		})

		p.Add("emit client data", func(ctx context.Context) error {
			dir := filepath.Join(cfg.Build.OutputDir, "dbc")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for _, rt := range registry.Types() {
				if rt.Storage != schema.StorageBinary {
					continue
				}
				data, err := session.EncodeBinary(rt.Name)
				if err != nil {
					return err
				}
				path := filepath.Join(dir, rt.File)
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				logger.Info("client file written",
					zap.String("path", path),
					zap.Int("bytes", len(data)),
				)
			}
			return nil
		})

		p.Add("emit scripts", func(ctx context.Context) error {
			gen := luagen.NewGenerator(logger)
			dir := filepath.Join(cfg.Build.OutputDir, "scripts")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			written := 0
			for _, res := range results {
				if res.Creature.Encounter == nil {
					continue
				}
				src, err := gen.Script(res, session.ID().String())
				if err != nil {
					return err
				}
				if err := luagen.CheckChunk(src, cfg.Build.ScriptInstructionLimit); err != nil {
					return fmt.Errorf("script for %q: %w", res.Name, err)
				}
				path := filepath.Join(dir, luagen.FileName(res))
				if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
					return err
				}
				written++
			}
			logger.Info("scripts written", zap.Int("count", written))
			return nil
		})

		if cfg.Build.Apply {
			p.Add("apply", func(ctx context.Context) error {
				repo := postgres.NewWorldRepository(pool.Pool)
				if err := repo.ApplyStatements(ctx, stmts); err != nil {
					return err
				}
				logger.Info("sql applied", zap.Int("statements", len(stmts)))
				return nil
			})
		}
	}

	if err := p.Run(ctx); err != nil {
		logger.Fatal("build failed", zap.Error(err))
	}

	fmt.Printf("build complete in %s\n", time.Since(start).Round(time.Millisecond))
}
