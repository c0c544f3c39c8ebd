package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/continuity"
)

// Run is one archived assembly: the review load it was assembled for, the
// scenario of its newest link, and the size of the produced timeline.
type Run struct {
	ID           uuid.UUID `json:"id"`
	ReviewLoad   string    `json:"review_load"`
	Scenario     string    `json:"scenario"`
	CommandCount int       `json:"command_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveRun archives an assembled timeline with the continuity chain it was
// built from, atomically.
func (c *Client) SaveRun(ctx context.Context, run Run, chain []continuity.Record, cmds []backstop.Command) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assembly_runs (id, review_load, scenario, command_count, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.ReviewLoad, run.Scenario, len(cmds), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert assembly run: %w", err)
	}

	for i, link := range chain {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO continuity_links (run_id, position, base_load, continuity, load_type, interrupt_time)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			run.ID, i, link.Base, link.Continuity, link.LoadType, link.InterruptTime)
		if err != nil {
			return fmt.Errorf("insert continuity link %d: %w", i, err)
		}
	}

	for i, cmd := range cmds {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO history_commands (run_id, position, exec_date, exec_time, kind, tlmsid, scs, step, paramstr)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			run.ID, i, cmd.Date, cmd.Time, cmd.Kind, cmd.TLMSID, cmd.SCS, cmd.Step, cmd.ParamStr)
		if err != nil {
			return fmt.Errorf("insert history command %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}
	return nil
}

// LatestRunForLoad returns the most recent archived run for a review load.
func (c *Client) LatestRunForLoad(ctx context.Context, reviewLoad string) (Run, error) {
	var run Run
	err := c.db.QueryRowContext(ctx,
		`SELECT id, review_load, scenario, command_count, created_at
		 FROM assembly_runs WHERE review_load = $1
		 ORDER BY created_at DESC LIMIT 1`, reviewLoad).
		Scan(&run.ID, &run.ReviewLoad, &run.Scenario, &run.CommandCount, &run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("query latest run for %s: %w", reviewLoad, err)
	}
	return run, nil
}

// ChainForRun returns the archived continuity chain of a run, newest link
// first.
func (c *Client) ChainForRun(ctx context.Context, runID uuid.UUID) ([]continuity.Record, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT base_load, continuity, load_type, interrupt_time
		 FROM continuity_links WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query chain for run %s: %w", runID, err)
	}
	defer rows.Close()

	var chain []continuity.Record
	for rows.Next() {
		var rec continuity.Record
		if err := rows.Scan(&rec.Base, &rec.Continuity, &rec.LoadType, &rec.InterruptTime); err != nil {
			return nil, fmt.Errorf("scan continuity link: %w", err)
		}
		chain = append(chain, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate continuity links: %w", err)
	}
	return chain, nil
}

// CommandsForRun returns the archived timeline of a run in master-list order.
func (c *Client) CommandsForRun(ctx context.Context, runID uuid.UUID) ([]backstop.Command, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT exec_date, exec_time, kind, tlmsid, scs, step, paramstr
		 FROM history_commands WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query commands for run %s: %w", runID, err)
	}
	defer rows.Close()

	var cmds []backstop.Command
	for rows.Next() {
		var cmd backstop.Command
		if err := rows.Scan(&cmd.Date, &cmd.Time, &cmd.Kind, &cmd.TLMSID, &cmd.SCS, &cmd.Step, &cmd.ParamStr); err != nil {
			return nil, fmt.Errorf("scan history command: %w", err)
		}
		cmds = append(cmds, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history commands: %w", err)
	}
	return cmds, nil
}
