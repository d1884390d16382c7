package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/pipeline"
	"github.com/roach88/otioseq/internal/reconcile"
)

// errNotInteractive is returned when a plan needs approval but there is no
// terminal to ask on.
var errNotInteractive = errors.New("stdin is not a terminal; pass --yes to apply without confirmation")

// newApprover shows the plan and asks for confirmation on cmd's input.
// With yes set every plan is approved without asking.
func newApprover(cmd *cobra.Command, yes bool) pipeline.Approver {
	if yes {
		return nil
	}
	return func(ctx context.Context, plan *reconcile.Plan) (bool, error) {
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && !isTerminal(f) {
			return false, errNotInteractive
		}
		w := cmd.ErrOrStderr()
		writePlan(w, plan)
		return confirm(in, w, "Apply these changes?")
	}
}

func confirm(in io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
