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

// UsersFile is the default user artifact name.
const UsersFile = "users.csv"

// UserGenerator produces synthetic user profiles, optionally constrained
// to a category vocabulary.
type UserGenerator struct {
	prompter
	alloc *Allocator
}

// NewUserGenerator wires a user generator to the text-generation
// capability and the shared allocator.
func NewUserGenerator(cfg config.Generator, client ai.Client, alloc *Allocator, log zerolog.Logger) *UserGenerator {
	return &UserGenerator{
		prompter: newPrompter(cfg, client, log.With().Str("component", "user-generator").Logger()),
		alloc:    alloc,
	}
}

type userPayload struct {
	BriefExplanation string   `json:"brief_explanation" validate:"required"`
	Profession       string   `json:"profession" validate:"required"`
	Preferences      []string `json:"preferences" validate:"min=1,dive,required"`
}

// GenerateUsers returns count user profiles. With opts.Reuse and an
// existing artifact the persisted profiles are returned verbatim. When
// opts.Categories is supplied every profile's preferences are a non-empty
// subset of it; supplying an empty vocabulary is a configuration error
// because the interest-link contract cannot be honored.
func (g *UserGenerator) GenerateUsers(ctx context.Context, count int, opts Options) ([]corpus.UserProfile, Provenance, error) {
	if opts.Categories != nil && len(opts.Categories) == 0 {
		return nil, Fresh, &ConfigurationError{Reason: "user generation got an empty category list"}
	}

	if opts.Reuse {
		path := csvio.ResolvePath(g.cfg.OutputDir, orDefault(opts.Path, UsersFile))
		cached, err := csvio.LoadUsers(path)
		if err != nil {
			return nil, Fresh, err
		}
		if cached != nil {
			maxID := 0
			for _, u := range cached {
				if u.UserID > maxID {
					maxID = u.UserID
				}
			}
			g.alloc.Resume(KindUser, maxID)
			g.log.Info().Str("path", path).Int("count", len(cached)).Msg("reusing user artifact")
			return cached, Cached, nil
		}
	}

	if count == 0 {
		return []corpus.UserProfile{}, Fresh, nil
	}

	users := make([]corpus.UserProfile, 0, count)
	for i := 0; i < count; i++ {
		user, err := g.generateOne(ctx, opts.Categories)
		if err != nil {
			return nil, Fresh, err
		}
		users = append(users, user)
	}
	return users, Fresh, nil
}

func (g *UserGenerator) generateOne(ctx context.Context, categories []string) (corpus.UserProfile, error) {
	system := fmt.Sprintf("You are generating realistic user personas for a %s.", g.cfg.ServiceType)
	prompt := fmt.Sprintf(
		"Generate one user persona. Respond in %s as a single JSON object with fields "+
			"\"brief_explanation\" (a one-sentence persona summary), \"profession\" and "+
			"\"preferences\" (a non-empty list of the user's interests).",
		g.cfg.Language)
	if categories != nil {
		prompt += fmt.Sprintf(" Every preference must be chosen from this list: %s.",
			strings.Join(categories, ", "))
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		var payload userPayload
		if err := g.generate(ctx, "user", system, prompt, &payload); err != nil {
			return corpus.UserProfile{}, err
		}

		preferences := payload.Preferences
		if categories != nil {
			preferences = intersect(preferences, categories)
			if len(preferences) == 0 {
				lastErr = &GenerationError{Record: "user", Field: "preferences",
					Err: fmt.Errorf("no preference matched the supplied categories")}
				g.log.Warn().Int("attempt", attempt+1).Msg("user preferences outside vocabulary")
				continue
			}
		}

		return corpus.UserProfile{
			UserID:           g.alloc.Next(KindUser),
			BriefExplanation: payload.BriefExplanation,
			Profession:       payload.Profession,
			Preferences:      preferences,
		}, nil
	}
	return corpus.UserProfile{}, lastErr
}

// intersect keeps the entries of prefs that appear in vocab, preserving
// order and matching case-insensitively against the vocabulary's casing.
func intersect(prefs, vocab []string) []string {
	folded := make([]string, len(vocab))
	for i, v := range vocab {
		folded[i] = strings.ToLower(v)
	}

	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if i := slices.Index(folded, strings.ToLower(strings.TrimSpace(p))); i >= 0 {
			if !slices.Contains(out, vocab[i]) {
				out = append(out, vocab[i])
			}
		}
	}
	return out
}
