package tournament

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/cardroom/pokerbench/internal/agent"
	"github.com/cardroom/pokerbench/internal/benchlog"
	"github.com/cardroom/pokerbench/internal/fileutil"
	"github.com/cardroom/pokerbench/internal/game"
	"github.com/cardroom/pokerbench/internal/randutil"
	"github.com/cardroom/pokerbench/poker"
)

// ProgressSink receives run progress events. Implementations must be safe
// for concurrent use across runs.
type ProgressSink interface {
	RunStarted(run int, seed int64)
	HandCompleted(run, handNumber, playersLeft int)
	RunCompleted(run, totalHands int, winner string, err error)
}

// NopSink discards all progress events.
type NopSink struct{}

func (NopSink) RunStarted(int, int64)               {}
func (NopSink) HandCompleted(int, int, int)         {}
func (NopSink) RunCompleted(int, int, string, error) {}

// Config describes a single tournament run.
type Config struct {
	RunNumber     int
	Seed          int64
	StartingStack int
	Schedule      *game.BlindSchedule
	LogDir        string
}

// Runner plays one tournament to completion: repeated hands with escalating
// blinds until a single seat holds all the chips. It owns the run's private
// object graph, so independent runs never share state.
type Runner struct {
	cfg      Config
	logger   *log.Logger
	manager  *agent.Manager
	scorer   *Scorer
	handLog  *benchlog.HandLogger
	agentLog *benchlog.AgentLogger
	progress ProgressSink
	rng      *rand.Rand

	players    map[int]*game.Player
	buttonSeat int
	handNumber int
}

// NewRunner builds a runner over the manager's active seats. Every seat
// starts with the configured stack.
func NewRunner(cfg Config, manager *agent.Manager, logger *log.Logger, progress ProgressSink) (*Runner, error) {
	seats := manager.ActiveSeats()
	if len(seats) < 2 {
		return nil, fmt.Errorf("tournament needs at least 2 seats, got %d", len(seats))
	}
	if cfg.StartingStack < 1 {
		return nil, fmt.Errorf("starting stack must be positive, got %d", cfg.StartingStack)
	}
	if cfg.Schedule == nil {
		return nil, fmt.Errorf("blind schedule is required")
	}
	if progress == nil {
		progress = NopSink{}
	}

	handLog, err := benchlog.NewHandLogger(cfg.LogDir)
	if err != nil {
		return nil, err
	}
	agentLog, err := benchlog.NewAgentLogger(cfg.LogDir)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		logger:   logger.WithPrefix("tournament").With("run", cfg.RunNumber),
		manager:  manager,
		scorer:   NewScorer(),
		handLog:  handLog,
		agentLog: agentLog,
		progress: progress,
		rng:      randutil.New(cfg.Seed),
		players:  make(map[int]*game.Player),
	}

	for _, seat := range seats {
		name := manager.Name(seat)
		r.players[seat] = &game.Player{Seat: seat, Name: name, Stack: cfg.StartingStack}
		r.scorer.RegisterPlayer(seat, name)
		r.agentLog.Register(seat, name)
	}
	r.buttonSeat = seats[0]
	return r, nil
}

// SaveMeta writes the run's meta.json.
func (r *Runner) SaveMeta() error {
	return fileutil.WriteJSON(filepath.Join(r.cfg.LogDir, "meta.json"), benchlog.Meta{
		Seed:          r.cfg.Seed,
		NumPlayers:    len(r.players),
		StartingStack: r.cfg.StartingStack,
		BlindSchedule: r.cfg.Schedule.Levels(),
	})
}

// Run plays the tournament to completion and returns the result.
func (r *Runner) Run(ctx context.Context) (*benchlog.TournamentResult, error) {
	if err := r.SaveMeta(); err != nil {
		return nil, err
	}
	r.progress.RunStarted(r.cfg.RunNumber, r.cfg.Seed)
	r.logger.Info("tournament starting", "seed", r.cfg.Seed, "players", len(r.players))

	for !r.scorer.IsOver() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tournament aborted: %w", err)
		}

		r.handNumber++
		if err := r.playHand(ctx); err != nil {
			return nil, fmt.Errorf("hand %d: %w", r.handNumber, err)
		}

		r.recordEliminations()
		r.rotateButton()
		r.progress.HandCompleted(r.cfg.RunNumber, r.handNumber, len(r.scorer.Survivors()))
	}

	if err := r.agentLog.Save(); err != nil {
		return nil, err
	}

	winnerName := ""
	if seat, ok := r.scorer.Winner(); ok {
		winnerName = r.manager.Name(seat)
	}
	r.logger.Info("tournament complete", "hands", r.handNumber, "winner", winnerName)
	r.progress.RunCompleted(r.cfg.RunNumber, r.handNumber, winnerName, nil)

	agentStats := make(map[string]benchlog.AgentStats)
	for _, st := range r.agentLog.AllStats() {
		agentStats[st.AgentName] = st
	}
	return &benchlog.TournamentResult{
		RunNumber:  r.cfg.RunNumber,
		Seed:       r.cfg.Seed,
		TotalHands: r.handNumber,
		Placements: r.scorer.PlacementsByName(),
		AgentStats: agentStats,
	}, nil
}

func (r *Runner) playHand(ctx context.Context) error {
	seats := r.manager.ActiveSeats()
	participants := make([]*game.Player, 0, len(seats))
	for _, seat := range seats {
		participants = append(participants, r.players[seat])
	}

	sb, bb := r.cfg.Schedule.Blinds(r.handNumber)
	level := r.cfg.Schedule.Level(r.handNumber)

	var infos []benchlog.PlayerInfo
	for _, p := range participants {
		infos = append(infos, benchlog.PlayerInfo{Seat: p.Seat, Name: p.Name, Stack: p.Stack})
	}

	h, err := game.NewHand(r.rng, participants, r.handNumber, r.buttonSeat, sb, bb)
	if err != nil {
		return err
	}

	holeCards := make(map[int][]poker.Card, len(participants))
	holeStrings := make(map[int][]string, len(participants))
	for _, p := range participants {
		holeCards[p.Seat] = p.HoleCards
		holeStrings[p.Seat] = poker.CardStrings(p.HoleCards)
	}

	r.handLog.StartHand(r.handNumber, level, r.buttonSeat, sb, bb, infos, holeStrings)
	r.manager.StartHand(r.handNumber, holeCards, r.buttonSeat)

	// Blind posts happen inside NewHand; replay them into the logs.
	logged := 0
	logged = r.syncActions(h, logged)

	for !h.Complete() {
		if err := ctx.Err(); err != nil {
			return err
		}
		seat := h.ActionOn()
		if seat == 0 {
			return fmt.Errorf("hand incomplete with no seat to act")
		}
		if err := r.playDecision(ctx, h, seat); err != nil {
			return err
		}
		logged = r.syncActions(h, logged)
		r.manager.UpdateCommunity(h.Community())
	}

	return r.finishHand(h)
}

// playDecision gets one action from the seat's agent and applies it. A
// rejected action falls back to the safe action; a second rejection is
// fatal for the run.
func (r *Runner) playDecision(ctx context.Context, h *game.HandState, seat int) error {
	obs := agent.BuildObservation(h, seat, r.manager.Name)

	var engineAction game.Action
	agentAction, err := r.manager.GetAction(ctx, seat, obs)
	if err != nil {
		r.logger.Warn("agent decision failed, using safe action", "seat", seat, "error", err)
		engineAction, err = h.SafeFallback(seat)
		if err != nil {
			return err
		}
	} else {
		engineAction = game.Normalize(h.Player(seat), h.BettingView(), agentAction.GameKind(), agentAction.RaiseTo)
	}

	if err := h.Apply(seat, engineAction); err != nil {
		r.logger.Warn("action rejected, using safe action",
			"seat", seat, "action", engineAction.Kind, "error", err)
		fallback, fbErr := h.SafeFallback(seat)
		if fbErr != nil {
			return fbErr
		}
		if err := h.Apply(seat, fallback); err != nil {
			return fmt.Errorf("safe action rejected for seat %d: %w", seat, err)
		}
	}
	return nil
}

// syncActions forwards newly appended engine actions to the hand log and
// the agents' memories. Returns the new high-water mark.
func (r *Runner) syncActions(h *game.HandState, from int) int {
	actions := h.Actions()
	for _, a := range actions[from:] {
		r.handLog.RecordAction(a.Street.String(), a.Seat, a.Kind.String(), a.Amount, a.PotAfter)
		r.manager.RecordAction(a.Street.String(), a.Seat, a.Kind.String(), a.Amount)
	}
	return len(actions)
}

func (r *Runner) finishHand(h *game.HandState) error {
	settlement := h.Settlement()
	if settlement == nil {
		return fmt.Errorf("complete hand has no settlement")
	}

	var revealSeats []int
	for seat := range settlement.Showdown {
		revealSeats = append(revealSeats, seat)
	}
	sort.Ints(revealSeats)
	for _, seat := range revealSeats {
		cards := settlement.Showdown[seat]
		r.handLog.RecordShowdown(seat, poker.CardStrings(cards))
		r.manager.RecordShowdown(seat, cards)
	}

	r.handLog.RecordCommunity(poker.CardStrings(h.Community()))
	r.manager.UpdateCommunity(h.Community())

	if err := r.handLog.EndHand(settlement.Winners, h.Pot(), settlement.Payouts); err != nil {
		return err
	}

	outcomes := make(map[int]agent.HandOutcome)
	for seat, sr := range settlement.Results {
		outcomes[seat] = agent.HandOutcome{
			Result:     string(sr.Outcome),
			ChipsWon:   sr.Payout,
			FinalStack: r.players[seat].Stack,
		}
	}
	r.manager.EndHand(outcomes, h.Pot())

	return r.agentLog.LogHand(r.handNumber, r.manager.DrainTraces())
}

// recordEliminations groups all seats that busted this hand into one
// scorer call so they share a placement.
func (r *Runner) recordEliminations() {
	var busted []int
	for _, seat := range r.manager.ActiveSeats() {
		if r.players[seat].Stack == 0 {
			busted = append(busted, seat)
		}
	}
	if len(busted) == 0 {
		return
	}

	r.scorer.RecordEliminations(r.handNumber, busted)
	for _, seat := range busted {
		r.manager.Eliminate(seat)
		r.logger.Info("player eliminated", "seat", seat, "agent", r.manager.Name(seat), "hand", r.handNumber)
	}
}

// rotateButton moves the button to the next seat with chips, by ascending
// seat number and wrapping around.
func (r *Runner) rotateButton() {
	var seats []int
	for seat, p := range r.players {
		if p.Stack > 0 {
			seats = append(seats, seat)
		}
	}
	if len(seats) == 0 {
		return
	}
	sort.Ints(seats)

	for _, seat := range seats {
		if seat > r.buttonSeat {
			r.buttonSeat = seat
			return
		}
	}
	r.buttonSeat = seats[0]
}
