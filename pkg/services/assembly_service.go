// Package services holds the application services behind the API and the
// CLI: chain walking, timeline assembly, and archiving of assembled runs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acisops/cmdhist/pkg/assembly"
	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/chron"
	"github.com/acisops/cmdhist/pkg/continuity"
	"github.com/acisops/cmdhist/pkg/database"
	"github.com/acisops/cmdhist/pkg/nlet"
	"github.com/acisops/cmdhist/pkg/rts"
	"github.com/acisops/cmdhist/pkg/synth"
)

// AssembleResult is one finished assembly: the walked chain, the merged
// timeline, and the identifier it was archived under.
type AssembleResult struct {
	RunID      uuid.UUID
	ReviewLoad string
	Scenario   assembly.Scenario
	Chain      []continuity.Record
	Commands   []backstop.Command
}

// AssemblyService walks continuity chains and assembles command histories.
// Each Assemble call builds a fresh Assembler, so the service itself is safe
// to share.
type AssemblyService struct {
	nletPath string
	archive  *database.Client // nil when archiving is disabled
}

// NewAssemblyService creates an AssemblyService reading events from nletPath.
// archive may be nil to disable run archiving.
func NewAssemblyService(nletPath string, archive *database.Client) *AssemblyService {
	return &AssemblyService{nletPath: nletPath, archive: archive}
}

// WalkChain walks the continuity chain backward from the review load
// directory, capped at maxLinks.
func (s *AssemblyService) WalkChain(loadDir string, maxLinks int) ([]continuity.Record, error) {
	if loadDir == "" {
		return nil, NewValidationError("load_dir", "must not be empty")
	}
	if maxLinks <= 0 {
		return nil, NewValidationError("max_links", "must be positive")
	}
	return continuity.Walk(loadDir, maxLinks)
}

// AssembleChain walks the continuity chain from the review load directory and
// assembles the full command history, replaying the chain oldest link last:
// each link's load type selects the combination scenario that splices its
// predecessor onto the timeline assembled so far. The result is archived when
// an archive store is configured.
func (s *AssemblyService) AssembleChain(ctx context.Context, loadDir string, maxLinks int) (*AssembleResult, error) {
	chain, err := s.WalkChain(loadDir, maxLinks)
	if err != nil {
		return nil, err
	}

	reviewCmds, reviewName, err := backstop.ReadLoad(loadDir)
	if err != nil {
		return nil, fmt.Errorf("read review load: %w", err)
	}

	asm, err := s.newAssembler()
	if err != nil {
		return nil, err
	}

	scenario := assembly.ScenarioNormal
	current := reviewCmds
	for i, link := range chain {
		sc, err := assembly.ParseScenario(link.LoadType)
		if err != nil {
			return nil, fmt.Errorf("%w: chain link %d: %v", ErrInvalidInput, i, err)
		}
		if i == 0 {
			scenario = sc
		}

		slog.Info("Combining continuity load",
			"link", i, "scenario", sc, "continuity", link.Continuity, "interrupt", link.InterruptTime)

		if err := s.combineLink(asm, sc, link, current); err != nil {
			return nil, fmt.Errorf("chain link %d (%s): %w", i, link.Base, err)
		}
		current = asm.Master()
	}

	result := &AssembleResult{
		RunID:      uuid.New(),
		ReviewLoad: reviewName,
		Scenario:   scenario,
		Chain:      chain,
		Commands:   current,
	}

	if s.archive != nil {
		run := database.Run{
			ID:         result.RunID,
			ReviewLoad: result.ReviewLoad,
			Scenario:   string(result.Scenario),
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.archive.SaveRun(ctx, run, chain, current); err != nil {
			return nil, fmt.Errorf("archive assembled run: %w", err)
		}
	}
	return result, nil
}

// combineLink splices one continuity link's predecessor load onto the
// timeline assembled so far.
func (s *AssemblyService) combineLink(asm *assembly.Assembler, sc assembly.Scenario, link continuity.Record, cont []backstop.Command) error {
	pred, _, err := backstop.ReadLoad(link.Continuity)
	if err != nil {
		return fmt.Errorf("read continuity load: %w", err)
	}

	switch sc {
	case assembly.ScenarioNormal:
		return asm.CombineNormal(pred, cont)

	case assembly.ScenarioTimeCut:
		return asm.CombineTimeCut(pred, cont)

	case assembly.ScenarioFullStop:
		shutdown, err := chron.SecsFromDate(link.InterruptTime)
		if err != nil {
			return fmt.Errorf("bad interrupt time %q: %w", link.InterruptTime, err)
		}
		return asm.CombineFullStop(pred, cont, shutdown)

	case assembly.ScenarioScienceOnly:
		shutdown, err := chron.SecsFromDate(link.InterruptTime)
		if err != nil {
			return fmt.Errorf("bad interrupt time %q: %w", link.InterruptTime, err)
		}
		vehicle, _, err := backstop.ReadVehicleLoad(link.Continuity)
		if err != nil {
			return fmt.Errorf("read vehicle-only load: %w", err)
		}
		return asm.CombineScienceOnly(pred, vehicle, cont, shutdown)
	}
	return fmt.Errorf("%w: scenario %q", ErrInvalidInput, sc)
}

func (s *AssemblyService) newAssembler() (*assembly.Assembler, error) {
	expander, err := rts.NewExpander()
	if err != nil {
		return nil, fmt.Errorf("load calibration run templates: %w", err)
	}
	synthesizer := synth.New(backstop.DefaultTemplates(), expander)
	return assembly.New(synthesizer, nlet.NewReader(s.nletPath)), nil
}

// ArchivedRun fetches the latest archived run for a review load together
// with its chain.
func (s *AssemblyService) ArchivedRun(ctx context.Context, reviewLoad string) (database.Run, []continuity.Record, error) {
	if s.archive == nil {
		return database.Run{}, nil, fmt.Errorf("%w: archiving is disabled", ErrNotFound)
	}
	run, err := s.archive.LatestRunForLoad(ctx, reviewLoad)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Run{}, nil, fmt.Errorf("%w: no archived run for %s", ErrNotFound, reviewLoad)
		}
		return database.Run{}, nil, err
	}
	chain, err := s.archive.ChainForRun(ctx, run.ID)
	if err != nil {
		return database.Run{}, nil, err
	}
	return run, chain, nil
}
