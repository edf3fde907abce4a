package gen

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/logfaker/logfaker/ai"
	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/csvio"
)

const (
	// maxCategories bounds the generated taxonomy.
	maxCategories = 100
	// maxContents bounds a single content batch.
	maxContents = 1000

	// ContentsFile is the default content artifact name.
	ContentsFile = "contents.csv"
)

// Provenance records whether a batch was freshly generated or loaded from
// a cached artifact.
type Provenance int

const (
	Fresh Provenance = iota
	Cached
)

func (p Provenance) String() string {
	if p == Cached {
		return "cached"
	}
	return "fresh"
}

// Options controls a generation call.
type Options struct {
	// Categories supplies the vocabulary. Nil lets the generator derive
	// one; an empty non-nil slice is a configuration error for users.
	Categories []string
	// Reuse loads an existing CSV artifact instead of regenerating.
	Reuse bool
	// Path overrides the artifact location. Bare filenames resolve
	// against the configured output directory.
	Path string
}

// ContentGenerator produces the category taxonomy and content records.
type ContentGenerator struct {
	prompter
	alloc      *Allocator
	categories []string // vocabulary derived once per run
}

// NewContentGenerator wires a content generator to the text-generation
// capability and the shared allocator.
func NewContentGenerator(cfg config.Generator, client ai.Client, alloc *Allocator, log zerolog.Logger) *ContentGenerator {
	return &ContentGenerator{
		prompter: newPrompter(cfg, client, log.With().Str("component", "content-generator").Logger()),
		alloc:    alloc,
	}
}

type categoriesPayload struct {
	Categories []string `json:"categories" validate:"min=1,dive,required"`
}

// GenerateCategories asks the model for a category taxonomy sized to the
// configured service type. Names are deduplicated case-insensitively,
// preserving first-seen order.
func (g *ContentGenerator) GenerateCategories(ctx context.Context) ([]string, error) {
	system := fmt.Sprintf("You are designing the category taxonomy of a %s.", g.cfg.ServiceType)
	prompt := fmt.Sprintf(
		"List up to %d distinct top-level categories for a %s. "+
			"Respond in %s as a single JSON object: {\"categories\": [\"name\", ...]}.",
		maxCategories, g.cfg.ServiceType, g.cfg.Language)

	var payload categoriesPayload
	if err := g.generate(ctx, "categories", system, prompt, &payload); err != nil {
		return nil, err
	}

	categories := dedupeFold(payload.Categories)
	if len(categories) > maxCategories {
		categories = categories[:maxCategories]
	}
	g.log.Info().Int("count", len(categories)).Msg("generated categories")
	return categories, nil
}

type contentPayload struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Year        int    `json:"year"`
	Genre       string `json:"genre"`
	Abstract    string `json:"abstract"`
}

// GenerateContents returns count content records. With opts.Reuse and an
// existing artifact, the persisted records are returned verbatim and the
// allocator resumes past their highest id. Fresh generation partitions
// count across the vocabulary round-robin so every category is covered
// when count allows.
func (g *ContentGenerator) GenerateContents(ctx context.Context, count int, opts Options) ([]corpus.Content, Provenance, error) {
	if opts.Reuse {
		path := csvio.ResolvePath(g.cfg.OutputDir, orDefault(opts.Path, ContentsFile))
		cached, err := csvio.LoadContents(path)
		if err != nil {
			return nil, Fresh, err
		}
		if cached != nil {
			maxID := 0
			for _, c := range cached {
				if c.ContentID > maxID {
					maxID = c.ContentID
				}
			}
			g.alloc.Resume(KindContent, maxID)
			g.log.Info().Str("path", path).Int("count", len(cached)).Msg("reusing content artifact")
			return cached, Cached, nil
		}
	}

	// the cap bounds fresh generation only; a cached artifact is served
	// whatever its size
	if count > maxContents {
		return nil, Fresh, &ConfigurationError{Reason: fmt.Sprintf("content count %d exceeds the %d item limit", count, maxContents)}
	}

	if count == 0 {
		return []corpus.Content{}, Fresh, nil
	}

	categories := opts.Categories
	if categories == nil {
		if g.categories == nil {
			derived, err := g.GenerateCategories(ctx)
			if err != nil {
				return nil, Fresh, err
			}
			g.categories = derived
		}
		categories = g.categories
	}
	if len(categories) == 0 {
		return nil, Fresh, &ConfigurationError{Reason: "content generation requires a non-empty category vocabulary"}
	}

	contents := make([]corpus.Content, 0, count)
	for i := 0; i < count; i++ {
		category := categories[i%len(categories)]
		content, err := g.generateOne(ctx, category)
		if err != nil {
			// partial batches are discarded so a returned sequence is
			// always contiguous and fully valid
			return nil, Fresh, err
		}
		contents = append(contents, content)
	}
	return contents, Fresh, nil
}

func (g *ContentGenerator) generateOne(ctx context.Context, category string) (corpus.Content, error) {
	system := fmt.Sprintf("You are generating realistic catalog entries for a %s.", g.cfg.ServiceType)
	prompt := fmt.Sprintf(
		"Generate one catalog item in the category %q. Respond in %s as a single JSON object "+
			"with required fields \"title\" and \"description\", and optional fields "+
			"\"author\", \"publisher\", \"year\", \"genre\" and \"abstract\".",
		category, g.cfg.Language)

	var payload contentPayload
	if err := g.generate(ctx, "content", system, prompt, &payload); err != nil {
		return corpus.Content{}, err
	}

	return corpus.Content{
		ContentID:   g.alloc.Next(KindContent),
		Title:       payload.Title,
		Description: payload.Description,
		Category:    category,
		Author:      payload.Author,
		Publisher:   payload.Publisher,
		Year:        payload.Year,
		Genre:       payload.Genre,
		Abstract:    payload.Abstract,
	}, nil
}

// dedupeFold removes case-insensitive duplicates, keeping first-seen
// casing and order.
func dedupeFold(names []string) []string {
	seen := make([]string, 0, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		folded := strings.ToLower(name)
		if slices.Contains(seen, folded) {
			continue
		}
		seen = append(seen, folded)
		out = append(out, name)
	}
	return out
}

func orDefault(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
