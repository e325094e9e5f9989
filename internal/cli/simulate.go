package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/pkg/adapters/console"
	"github.com/aretw0/fluxo/pkg/domain"
)

// SimulateOptions selects the conversation played in the terminal.
type SimulateOptions struct {
	FlowID   string
	TenantID string
	Contact  string
	In       io.Reader
	Out      io.Writer
}

// Simulate plays one conversation in the terminal, with the user typing as
// the contact. Numbers pick the options of the last menu. Delays are
// fast-forwarded.
func Simulate(ctx context.Context, stack *Stack, gateway *console.Gateway, opts SimulateOptions) error {
	res, err := stack.Engine.StartFlow(ctx, opts.FlowID, opts.TenantID, opts.Contact)
	if err != nil {
		return err
	}
	reportWarnings(opts.Out, res)
	exec := res.Execution

	scanner := bufio.NewScanner(opts.In)
	for exec.Status == domain.StatusActive {
		if exec.ResumeAt != nil {
			printSystemMessage(opts.Out, "Skipping delay until %s", exec.ResumeAt.Format(time.TimeOnly))
			if exec, err = fastForward(ctx, stack, exec); err != nil {
				return err
			}
			continue
		}

		fmt.Fprint(opts.Out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(opts.Out)
			printSystemMessage(opts.Out, "Input closed at '%s' block.", exec.CurrentBlockID)
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		text, id := gateway.Resolve(line)
		res, err = stack.Engine.ContinueFlow(ctx, opts.TenantID, opts.Contact, fluxo.Reply{Text: text, InteractiveID: id})
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			return err
		}
		reportWarnings(opts.Out, res)
		exec = res.Execution
	}

	printSystemMessage(opts.Out, "Finished at '%s' block with status %s.", exec.CurrentBlockID, exec.Status)
	return nil
}

func fastForward(ctx context.Context, stack *Stack, exec *domain.FlowExecution) (*domain.FlowExecution, error) {
	due, err := stack.Delays.Due(ctx, *exec.ResumeAt)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, fmt.Errorf("no wake-up scheduled for block %s", exec.CurrentBlockID)
	}
	for _, w := range due {
		if err := stack.Engine.ResumeFlow(ctx, w); err != nil {
			return nil, err
		}
	}
	return stack.Engine.Execution(ctx, exec.ID)
}

func reportWarnings(w io.Writer, res *fluxo.Result) {
	for _, warning := range res.Warnings {
		printSystemMessage(w, "%v", warning)
	}
}
