// Command counter displays an integer counter adjusted with j/k or the arrow
// keys; q quits.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/tui-counter/app"
	"github.com/lixenwraith/tui-counter/config"
	"github.com/lixenwraith/tui-counter/session"
)

// opener acquires the terminal, swapped in tests
type opener func(session.Options) (session.Session, error)

func main() {
	// Restores the terminal before the crash report is printed
	defer session.Guard()

	if err := newRootCmd(session.Open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Terminal counter",
		Long: `Displays "Counter: <n>" in the alternate screen.

Keys:
  k, Up      increment
  j, Down    decrement
  q          quit

Every flag can also be set through a COUNTER_* environment variable,
e.g. COUNTER_BACKEND=tcell.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return run(cfg, open)
		},
	}

	if err := config.RegisterFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

// run acquires the terminal, runs the loop, restores the terminal and
// returns the first error encountered
func run(cfg *config.Config, open opener) error {
	log, logFile, err := setupLogging(cfg.LogFile, cfg.Level())
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	s, err := open(session.Options{
		Backend:      cfg.Backend,
		EnhancedKeys: cfg.EnhancedKeys,
		Logger:       log,
	})
	if err != nil {
		log.Error().Err(err).Msg("terminal setup failed")
		return fmt.Errorf("open terminal: %w", err)
	}

	runErr := app.New(app.WithLogger(log)).Run(s)
	restoreErr := s.Restore()

	if restoreErr != nil {
		log.Error().Err(restoreErr).Msg("terminal restore failed")
	}
	if runErr != nil {
		return runErr
	}
	if restoreErr != nil {
		return fmt.Errorf("restore terminal: %w", restoreErr)
	}
	return nil
}
