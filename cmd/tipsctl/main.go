package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/logger"
	"github.com/radieske/tips-platform/internal/tips-client/actions"
	"github.com/radieske/tips-platform/internal/tips-client/api"
	"github.com/radieske/tips-platform/internal/tips-client/config"
	"github.com/radieske/tips-platform/internal/tips-client/live"
	"github.com/radieske/tips-platform/internal/tips-client/store"
	"github.com/radieske/tips-platform/internal/tips-client/view"
	"github.com/radieske/tips-platform/pkg/contracts/events"
)

const usage = `usage: tipsctl [-config file] [-v] <command> [args]

commands:
  bets                         approved bets
  training                     training pool
  signals                      live signals (pending)
  history                      live history (settled)
  stats                        training pool summary
  candidates                   training records not yet approved
  approve [-odds X] <matchId> <market>
  delete <id>                  delete an approved bet
  settle                       run settlement now
  watch                        follow live updates
`

// toast escreve avisos transitórios no stderr
type toast struct{ w io.Writer }

func (t toast) Notify(msg string) { fmt.Fprintln(t.w, "!", msg) }

type app struct {
	cfg      config.Config
	log      *zap.Logger
	client   *api.Client
	surfaces *store.Surfaces
	notify   store.Notifier
	out      io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "tipsctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tipsctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	cfgPath := fs.String("config", os.Getenv("TIPSCTL_CONFIG"), "path to the YAML config file")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if *verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.NewCLI(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	client := api.New(cfg.BaseURL, cfg.Token, cfg.Timeout)
	n := toast{w: stderr}
	a := &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		surfaces: store.NewSurfaces(client, n, log),
		notify:   n,
		out:      stdout,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "bets":
		return a.show(ctx, "approved bets", a.surfaces.ApprovedBets)
	case "training":
		return a.show(ctx, "training pool", a.surfaces.TrainingPool)
	case "signals":
		return a.show(ctx, "live signals", a.surfaces.LiveSignals)
	case "history":
		return a.show(ctx, "live history", a.surfaces.LiveHistory)
	case "stats":
		s, err := client.TrainingStats(ctx)
		if err != nil {
			return err
		}
		view.Stats(a.out, s)
		return nil
	case "candidates":
		cands, err := a.candidates(ctx)
		if err != nil {
			return err
		}
		view.Candidates(a.out, cands.List(), time.Now())
		return nil
	case "approve":
		return a.approve(ctx, rest, stderr)
	case "delete":
		if len(rest) != 1 {
			return errors.New("usage: tipsctl delete <id>")
		}
		return a.deleteBet(ctx, rest[0])
	case "settle":
		acts := actions.New(client, actions.NewCandidates(), a.surfaces, n, log)
		count, err := acts.RunSettlement(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "settled %d bet(s)\n", count)
		return nil
	case "watch":
		return a.watch(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// show carrega o store e imprime; erro de carga vira código de saída
func (a *app) show(ctx context.Context, title string, s *store.Store) error {
	s.Load(ctx)
	st := s.State()
	view.Records(a.out, title, st, time.Now())
	if st.Err != "" {
		return errors.New(st.Err)
	}
	return nil
}

func (a *app) candidates(ctx context.Context) (*actions.Candidates, error) {
	var wg sync.WaitGroup
	for _, s := range []*store.Store{a.surfaces.TrainingPool, a.surfaces.ApprovedBets} {
		wg.Add(1)
		go func(s *store.Store) {
			defer wg.Done()
			s.Load(ctx)
		}(s)
	}
	wg.Wait()

	training, approved := a.surfaces.TrainingPool.State(), a.surfaces.ApprovedBets.State()
	for _, st := range []store.State{training, approved} {
		if st.Err != "" {
			return nil, errors.New(st.Err)
		}
	}
	return actions.NewCandidates(actions.FromTraining(training.Records, approved.Records)...), nil
}

func (a *app) approve(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("approve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	odds := fs.String("odds", "", "decimal odds (default: suggested by the analysis)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: tipsctl approve [-odds X] <matchId> <market>")
	}
	matchID, market := fs.Arg(0), fs.Arg(1)

	cands, err := a.candidates(ctx)
	if err != nil {
		return err
	}
	c, ok := cands.Get(matchID + "|" + market)
	if !ok {
		return fmt.Errorf("no candidate for match %s market %q", matchID, market)
	}

	acts := actions.New(a.client, cands, a.surfaces, a.notify, a.log)
	if err := acts.Approve(ctx, c, *odds); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "approved %s x %s (%s), %d candidate(s) left\n", c.HomeTeam, c.AwayTeam, c.Market, cands.Len())
	return nil
}

func (a *app) deleteBet(ctx context.Context, id string) error {
	if err := a.surfaces.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", id)
	return nil
}

// renderable decide se o watch redesenha a superfície: coleção atualizada,
// ou erro de carga (que deixa a coleção marcada como desatualizada)
func renderable(st store.State) bool {
	if st.Loading {
		return false
	}
	return !st.Stale || st.Err != ""
}

// watch imprime a tela inicial e recarrega os stores do pool a cada aviso
func (a *app) watch(ctx context.Context) error {
	titles := map[*store.Store]string{
		a.surfaces.ApprovedBets: "approved bets",
		a.surfaces.TrainingPool: "training pool",
		a.surfaces.LiveSignals:  "live signals",
		a.surfaces.LiveHistory:  "live history",
	}

	var mu sync.Mutex
	for s, title := range titles {
		s.Subscribe(func(st store.State) {
			if !renderable(st) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			view.Records(a.out, title, st, time.Now())
		})
		s.LoadAsync(ctx)
	}

	w := &live.Watcher{
		URL:       a.cfg.WSURL(),
		Token:     a.cfg.Token,
		Pools:     a.cfg.Live.Pools,
		Reconnect: a.cfg.Live.Reconnect,
		Log:       a.log,
		OnNotice: func(ev events.Lifecycle) {
			mu.Lock()
			view.Notice(a.out, ev, time.Now())
			mu.Unlock()
			for _, s := range a.surfaces.ForPool(ev.Pool) {
				s.Invalidate()
				s.LoadAsync(ctx)
			}
		},
	}
	w.Start(ctx)
	return nil
}
