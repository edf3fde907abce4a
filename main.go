package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/logfaker/logfaker/ai"
	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/csvio"
	"github.com/logfaker/logfaker/gen"
	"github.com/logfaker/logfaker/logs"
	"github.com/logfaker/logfaker/search"
	"github.com/logfaker/logfaker/search/elastic"
	"github.com/logfaker/logfaker/search/redisearch"
	"github.com/logfaker/logfaker/search/solr"
)

// default artifact names, shared between the generate and bench modes
const (
	queriesFile = "queries.csv"
	logsFile    = "logs.csv"
)

func selectEngine(cfg config.SearchEngine) (search.Engine, error) {
	switch cfg.Engine {
	case "elasticsearch":
		return elastic.New(cfg)
	case "solr":
		return solr.New(cfg)
	case "redisearch":
		return redisearch.New(cfg), nil
	}
	return nil, fmt.Errorf("unknown search engine %q", cfg.Engine)
}

func selectPolicy(name string, seed int64) (logs.ClickPolicy, error) {
	switch name {
	case "none":
		return logs.Passthrough{}, nil
	case "fixed":
		return logs.Fixed{Clicks: 1, CTR: 0.1}, nil
	case "random":
		return logs.NewRandom(seed), nil
	}
	return nil, fmt.Errorf("unknown click policy %q", name)
}

func logLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; LOGFAKER_* env vars override it")
	mode := flag.String("mode", "generate", "run mode: generate or bench")
	contentCount := flag.Int("contents", 50, "number of content records to generate")
	userCount := flag.Int("users", 10, "number of user profiles to generate")
	queriesPerUser := flag.Int("queries-per-user", 1, "number of search queries per user")
	reuse := flag.Bool("reuse", true, "reuse existing CSV artifacts instead of regenerating")
	forceIndex := flag.Bool("force-index", true, "delete and recreate the search index before indexing")
	clicks := flag.String("clicks", "none", "click simulation policy: none, fixed or random")
	seed := flag.Int64("seed", 1, "seed for the random click policy")
	conc := flag.Int("c", 4, "benchmark concurrency")
	duration := flag.Duration("duration", 30*time.Second, "benchmark duration")
	reporting := flag.Duration("reporting-period", time.Second, "benchmark progress reporting period, 0 to disable")
	benchOut := flag.String("out", "-", "benchmark result CSV file, - for stdout")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(logLevel(cfg.Generator.LogLevel)).
		With().Timestamp().Logger()

	engine, err := selectEngine(cfg.SearchEngine)
	if err != nil {
		logger.Fatal().Err(err).Msg("search engine setup failed")
	}

	ctx := context.Background()

	switch *mode {
	case "generate":
		policy, err := selectPolicy(*clicks, *seed)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid click policy")
		}
		err = runGenerate(ctx, cfg, engine, logger, generateParams{
			contents:       *contentCount,
			users:          *userCount,
			queriesPerUser: *queriesPerUser,
			reuse:          *reuse,
			forceIndex:     *forceIndex,
			policy:         policy,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("generation failed")
		}
	case "bench":
		path := csvio.ResolvePath(cfg.Generator.OutputDir, queriesFile)
		queries, err := csvio.LoadQueries(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading benchmark queries failed")
		}
		if len(queries) == 0 {
			logger.Fatal().Str("path", path).Msg("no query artifact; run generate first")
		}
		err = runBench(ctx, engine, queries, benchParams{
			engineName:      cfg.SearchEngine.Engine,
			concurrency:     *conc,
			duration:        *duration,
			reportingPeriod: *reporting,
			maxResults:      cfg.Generator.MaxResults,
			outfile:         *benchOut,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("benchmark failed")
		}
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

type generateParams struct {
	contents       int
	users          int
	queriesPerUser int
	reuse          bool
	forceIndex     bool
	policy         logs.ClickPolicy
}

// runGenerate drives the whole pipeline: contents, index, users, queries,
// search logs, with each stage exported to its CSV artifact.
func runGenerate(ctx context.Context, cfg *config.Config, engine search.Engine, logger zerolog.Logger, p generateParams) error {
	alloc := gen.NewAllocator()
	client := ai.NewOpenAI(cfg.Generator, logger)
	exporter := csvio.Exporter{OutputDir: cfg.Generator.OutputDir, QueryUserID: true}

	contentGen := gen.NewContentGenerator(cfg.Generator, client, alloc, logger)
	contents, prov, err := contentGen.GenerateContents(ctx, p.contents, gen.Options{Reuse: p.reuse})
	if err != nil {
		return err
	}
	if prov == gen.Fresh {
		if err := exporter.Contents(contents, gen.ContentsFile); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(contents)).Stringer("provenance", prov).Msg("contents ready")

	if err := engine.SetupIndex(ctx, p.forceIndex); err != nil {
		return err
	}
	for _, c := range contents {
		if err := engine.IndexContent(ctx, c); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(contents)).Msg("contents indexed")

	// users draw their preferences from the vocabulary the contents used
	vocabulary := categoriesOf(contents)

	userGen := gen.NewUserGenerator(cfg.Generator, client, alloc, logger)
	users, prov, err := userGen.GenerateUsers(ctx, p.users, gen.Options{Categories: vocabulary, Reuse: p.reuse})
	if err != nil {
		return err
	}
	if prov == gen.Fresh {
		if err := exporter.Users(users, gen.UsersFile); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(users)).Stringer("provenance", prov).Msg("users ready")

	queryGen := gen.NewQueryGenerator(cfg.Generator, client, alloc, logger)
	assembler := logs.NewAssembler(engine, cfg.Generator.MaxResults, p.policy, logger)

	var queries []corpus.SearchQuery
	var searchLogs []corpus.SearchLog
	for _, user := range users {
		userQueries, err := queryGen.GenerateQueries(ctx, user, p.queriesPerUser)
		if err != nil {
			return err
		}
		queries = append(queries, userQueries...)

		userLogs, err := assembler.AssembleAll(ctx, userQueries)
		if err != nil {
			return err
		}
		searchLogs = append(searchLogs, userLogs...)
	}

	if err := exporter.Queries(queries, queriesFile); err != nil {
		return err
	}
	if err := exporter.SearchLogs(searchLogs, logsFile); err != nil {
		return err
	}
	logger.Info().Int("queries", len(queries)).Int("logs", len(searchLogs)).Msg("search logs exported")
	return nil
}

func categoriesOf(contents []corpus.Content) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range contents {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	return out
}
