// Package genrunner drives image generation for battles where both players
// have deposited and submitted prompts. Exactly one run happens per battle:
// the database row transition idle -> running is the cross-process claim, and
// an in-process inflight set short-circuits repeat calls from the same server.
package genrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"prompt-battle/internal/imagegen"
	"prompt-battle/internal/store"
)

// Store is the subset of the battle store the runner needs.
type Store interface {
	GetBattle(ctx context.Context, id int64) (*store.Battle, error)
	CountDeposits(ctx context.Context, battleID int64) (int, error)
	ListPrompts(ctx context.Context, battleID int64) ([]store.Prompt, error)
	ClaimGeneration(ctx context.Context, id int64) (bool, error)
	FinishGeneration(ctx context.Context, id int64, p1ImageURL, p2ImageURL string) error
	FailGeneration(ctx context.Context, id int64, msg string) error
}

type Runner struct {
	store   Store
	gen     imagegen.Generator
	outDir  string
	baseURL string
	timeout time.Duration

	mu       sync.Mutex
	inflight map[int64]struct{}
	wg       sync.WaitGroup
}

func New(st Store, gen imagegen.Generator, outDir, baseURL string) *Runner {
	return &Runner{
		store:    st,
		gen:      gen,
		outDir:   outDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  5 * time.Minute,
		inflight: map[int64]struct{}{},
	}
}

// MaybeStart launches generation for the battle if it is ready and nobody
// claimed it yet. It returns true when this call won the claim and kicked off
// the background run. Callers treat false as "nothing to do", not an error.
func (r *Runner) MaybeStart(ctx context.Context, battleID int64) (bool, error) {
	r.mu.Lock()
	if _, busy := r.inflight[battleID]; busy {
		r.mu.Unlock()
		return false, nil
	}
	r.mu.Unlock()

	b, err := r.store.GetBattle(ctx, battleID)
	if err != nil {
		return false, err
	}
	if b.GenStatus != "" && b.GenStatus != store.GenIdle {
		return false, nil
	}
	deposits, err := r.store.CountDeposits(ctx, battleID)
	if err != nil {
		return false, err
	}
	if deposits < 2 {
		return false, nil
	}
	prompts, err := r.store.ListPrompts(ctx, battleID)
	if err != nil {
		return false, err
	}
	p1Prompt, p2Prompt, ok := pairPrompts(b, prompts)
	if !ok {
		return false, nil
	}

	claimed, err := r.store.ClaimGeneration(ctx, battleID)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	r.mu.Lock()
	r.inflight[battleID] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, battleID)
			r.mu.Unlock()
		}()
		r.run(battleID, p1Prompt, p2Prompt)
	}()
	return true, nil
}

// Wait blocks until all in-flight generations finish. Used on shutdown and
// in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(battleID int64, p1Prompt, p2Prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	p1URL, p2URL, err := r.generatePair(ctx, battleID, p1Prompt, p2Prompt)

	// ctx is already expired when the failure is the job's own timeout;
	// the outcome write gets its own deadline so the row never sticks at
	// running.
	recordCtx, recordCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer recordCancel()
	if err != nil {
		log.Error().
			Err(err).
			Int64("battle_id", battleID).
			Msg("image generation failed")
		if failErr := r.store.FailGeneration(recordCtx, battleID, err.Error()); failErr != nil {
			log.Error().
				Err(failErr).
				Int64("battle_id", battleID).
				Msg("record generation failure failed")
		}
		return
	}
	if err := r.store.FinishGeneration(recordCtx, battleID, p1URL, p2URL); err != nil {
		log.Error().
			Err(err).
			Int64("battle_id", battleID).
			Msg("record generation result failed")
		return
	}
	log.Info().
		Int64("battle_id", battleID).
		Dur("elapsed", time.Since(start)).
		Msg("image generation done")
}

func (r *Runner) generatePair(ctx context.Context, battleID int64, p1Prompt, p2Prompt string) (string, string, error) {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	p1File := fmt.Sprintf("battle-%d-p1.png", battleID)
	p2File := fmt.Sprintf("battle-%d-p2.png", battleID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.generateOne(gctx, p1Prompt, p1File) })
	g.Go(func() error { return r.generateOne(gctx, p2Prompt, p2File) })
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return r.baseURL + "/" + p1File, r.baseURL + "/" + p2File, nil
}

func (r *Runner) generateOne(ctx context.Context, prompt, filename string) error {
	png, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(r.outDir, filename), png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// pairPrompts resolves the stored prompts onto the battle's two seats. Both
// must be present for a run to start.
func pairPrompts(b *store.Battle, prompts []store.Prompt) (string, string, bool) {
	var p1, p2 string
	for _, p := range prompts {
		switch {
		case strings.EqualFold(p.PlayerAddress, b.Player1):
			p1 = p.Prompt
		case strings.EqualFold(p.PlayerAddress, b.Player2):
			p2 = p.Prompt
		}
	}
	return p1, p2, p1 != "" && p2 != ""
}
