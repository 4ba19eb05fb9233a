package ai

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"Mira/core"
	"Mira/lib/sl"
	"Mira/quota"
	"Mira/scene"
)

// ReferenceSource is the slice of the reference store the orchestrator
// needs: which assets a user has and the bytes of one of them.
type ReferenceSource interface {
	ListAssets(userId int64) []string
	LoadAsset(userId int64, handle string) ([]byte, error)
}

// QuotaKeeper is the allowance side of the quota ledger.
type QuotaKeeper interface {
	CheckAllowance(userId int64) (quota.Allowance, error)
	RecordUsage(userId int64) error
}

type SceneResolver interface {
	Resolve(raw string) scene.Description
}

// Generator owns the end-to-end generation lifecycle: preconditions,
// request assembly, provider submission, response interpretation and the
// quota update on success. Every failure is converted to a *Failure here,
// nothing escapes this boundary unhandled.
type Generator struct {
	conf     *core.Config
	log      *slog.Logger
	refs     ReferenceSource
	quota    QuotaKeeper
	resolver SceneResolver
	provider Provider
	inflight *semaphore.Weighted
}

func NewGenerator(conf *core.Config, log *slog.Logger, refs ReferenceSource, keeper QuotaKeeper, resolver SceneResolver, provider Provider) *Generator {
	maxConcurrent := conf.Provider.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Generator{
		conf:     conf,
		log:      log.With(sl.Module("generator")),
		refs:     refs,
		quota:    keeper,
		resolver: resolver,
		provider: provider,
		inflight: semaphore.NewWeighted(maxConcurrent),
	}
}

// Generate runs one generation attempt for the user. The returned error,
// when non-nil, is always a *Failure. Quota is consumed only on confirmed
// success, a failed attempt costs nothing.
func (g *Generator) Generate(ctx context.Context, userId int64, rawScene, style string) (*Result, error) {
	handles := g.refs.ListAssets(userId)
	if len(handles) == 0 {
		return nil, newFailure(FailNoReference, "no reference assets stored")
	}

	allowance, err := g.quota.CheckAllowance(userId)
	if err != nil {
		g.log.Error("checking allowance", slog.Int64("user", userId), sl.Err(err))
		return nil, newFailure(FailInternal, "quota check unavailable")
	}
	if !allowance.Allowed {
		return nil, newFailure(FailQuotaExceeded, "daily allowance exhausted")
	}

	description := g.resolver.Resolve(rawScene)
	request := NewGenerationRequest(description, style, g.conf.Provider.Model)

	reference, err := g.refs.LoadAsset(userId, handles[0])
	if err != nil {
		g.log.Error("loading reference asset", slog.Int64("user", userId), sl.Err(err))
		return nil, newFailure(FailNoReference, "reference asset unavailable")
	}
	request.ReferenceImage = reference

	g.log.With(
		slog.Int64("user", userId),
		slog.String("scene_source", string(description.Source)),
		slog.String("style", style),
		sl.Preview(request.Prompt, 120),
	).Info("submitting generation request")

	if err := g.inflight.Acquire(ctx, 1); err != nil {
		return nil, newFailure(FailInternal, "generation cancelled")
	}
	defer g.inflight.Release(1)

	timeout := time.Duration(g.conf.Provider.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	raw, err := g.provider.Submit(callCtx, request)
	if err != nil {
		return nil, newFailure(FailProvider, err.Error())
	}

	imageRef, err := ExtractImageRef(raw)
	if err != nil {
		return nil, newFailure(FailBadResponse, string(raw))
	}

	if err := g.quota.RecordUsage(userId); err != nil {
		// The image is already generated, do not fail the outcome over
		// a bookkeeping error.
		g.log.Error("recording usage", slog.Int64("user", userId), sl.Err(err))
	}

	elapsed := time.Since(started)
	g.log.With(
		slog.Int64("user", userId),
		slog.Duration("elapsed", elapsed),
	).Info("generation succeeded")

	return &Result{ImageURL: imageRef, Elapsed: elapsed}, nil
}
