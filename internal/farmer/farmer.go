package farmer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/suspectuso/blum-farmer/internal/blum"
	"github.com/suspectuso/blum-farmer/internal/credentials"
	"github.com/suspectuso/blum-farmer/internal/telemetry"
)

const (
	DefaultRetryDelay      = 60 * time.Second
	DefaultFriendsInterval = 12 * time.Hour
	DefaultMinPollInterval = 10 * time.Second
)

// ClaimTimeLayout formats the next claim time in status lines
const ClaimTimeLayout = "06/01/02 15:04:05"

// Client is the remote farming service
type Client interface {
	CheckSession(ctx context.Context, token string) (bool, error)
	Balance(ctx context.Context, token string) (blum.FarmingStatus, error)
	Claim(ctx context.Context, token string) (json.RawMessage, error)
	StartFarming(ctx context.Context, token string) (json.RawMessage, error)
	ClaimFriends(ctx context.Context, token string) (json.RawMessage, error)
	Refresh(ctx context.Context, refreshToken string) (*blum.Tokens, error)
}

// StateStore persists refreshed tokens and friends claim times
type StateStore interface {
	SaveTokens(accountID int, origin, current credentials.Credential) error
	LastFriendsClaim(accountID int) (time.Time, error)
	SaveFriendsClaim(accountID int, at time.Time) error
}

// Notifier is told about cycle restarts and stopped accounts
type Notifier interface {
	CycleRestarted(ctx context.Context, ev CycleEvent)
	AccountStopped(ctx context.Context, accountID int, reason error)
}

// Recorder receives counters for monitoring
type Recorder interface {
	Claimed(accountID int)
	Started(accountID int)
	FriendsClaimed(accountID int)
	Refreshed(ok bool)
	Failed(kind string)
	Balance(accountID int, available, farm float64)
}

// Config controls the farming loop
type Config struct {
	// Rotate moves to the next account after each claim instead of restarting the same one
	Rotate          bool
	Refresh         bool
	FriendsClaim    bool
	FriendsInterval time.Duration
	RetryDelay      time.Duration
	MinPollInterval time.Duration
}

// CycleEvent describes a claimed and restarted cycle
type CycleEvent struct {
	ClaimedAccount   int
	StartedAccount   int
	AvailableBalance float64
	FarmBalance      float64
	At               time.Time
}

// AccountStatus is the last known state of an account
type AccountStatus struct {
	AccountID        int
	Active           bool
	State            State
	AvailableBalance float64
	FarmBalance      float64
	EndTime          time.Time
	UpdatedAt        time.Time
	LastError        string
}

// Outcome is the result of one Step
type Outcome struct {
	State State
	Wait  time.Duration
}

// Farmer drives the claim/restart cycle over an account set
type Farmer struct {
	cfg      Config
	client   Client
	accounts *credentials.Store
	rotator  *credentials.Rotator
	store    StateStore
	notify   Notifier
	recorder Recorder
	log      *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu             sync.Mutex
	friendsClaimed map[int]time.Time
	statuses       map[int]*AccountStatus
	// claimed accounts whose follow-up start has not gone through yet
	pendingStart map[int]bool
}

// Option customizes a Farmer
type Option func(*Farmer)

// WithStateStore persists refreshed tokens and friends claims
func WithStateStore(s StateStore) Option {
	return func(f *Farmer) { f.store = s }
}

// WithNotifier sends events to n
func WithNotifier(n Notifier) Option {
	return func(f *Farmer) { f.notify = n }
}

// WithRecorder reports counters to r
func WithRecorder(r Recorder) Option {
	return func(f *Farmer) { f.recorder = r }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(f *Farmer) { f.now = now }
}

// WithSleep replaces the timed wait between iterations
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Farmer) { f.sleep = sleep }
}

// New creates a new Farmer
func New(cfg Config, client Client, accounts *credentials.Store, rotator *credentials.Rotator, log *slog.Logger, opts ...Option) *Farmer {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.FriendsInterval <= 0 {
		cfg.FriendsInterval = DefaultFriendsInterval
	}
	if cfg.MinPollInterval <= 0 {
		cfg.MinPollInterval = DefaultMinPollInterval
	}

	f := &Farmer{
		cfg:            cfg,
		client:         client,
		accounts:       accounts,
		rotator:        rotator,
		recorder:       nopRecorder{},
		log:            log,
		now:            time.Now,
		sleep:          Sleep,
		friendsClaimed: make(map[int]time.Time),
		statuses:       make(map[int]*AccountStatus),
		pendingStart:   make(map[int]bool),
	}
	for _, opt := range opts {
		opt(f)
	}

	for _, id := range accounts.IDs() {
		f.statuses[id] = &AccountStatus{AccountID: id, State: StateCheckingSession}
	}

	return f
}

// Run loops until ctx is cancelled or the active account's session becomes
// unusable without a way to refresh it
func (f *Farmer) Run(ctx context.Context) error {
	f.log.Info("farmer started",
		"accounts", f.accounts.Len(),
		"active", f.rotator.Current(),
		"rotate", f.cfg.Rotate,
		"refresh", f.cfg.Refresh,
		"friends_claim", f.cfg.FriendsClaim,
	)

	recovery := &Recovery{
		Delay: f.cfg.RetryDelay,
		Fatal: func(err error) bool {
			return errors.Is(err, blum.ErrSessionInvalid)
		},
		OnFailure: f.recorder.Failed,
		Sleep:     f.sleep,
		Log:       f.log,
	}

	err := recovery.Loop(ctx, func(ctx context.Context) (time.Duration, error) {
		outcome, err := f.Step(ctx)
		return outcome.Wait, err
	})
	if err != nil {
		f.log.Warn("farmer stopped", "error", err)
		if f.notify != nil {
			f.notify.AccountStopped(ctx, f.rotator.Current(), err)
		}
		return err
	}

	f.log.Info("farmer shut down")
	return nil
}

// Step runs one iteration for the active account and says how long to wait
// before the next one
func (f *Farmer) Step(ctx context.Context) (Outcome, error) {
	id := f.rotator.Current()
	log := telemetry.WithAccount(telemetry.WithIteration(f.log), id)

	outcome, err := f.step(ctx, log, id)
	if err != nil {
		f.updateStatus(id, func(s *AccountStatus) { s.LastError = err.Error() })
	}
	return outcome, err
}

func (f *Farmer) step(ctx context.Context, log *slog.Logger, id int) (Outcome, error) {
	cred, err := f.accounts.Get(id)
	if err != nil {
		return Outcome{}, err
	}

	f.setState(id, StateCheckingSession)
	valid, err := f.client.CheckSession(ctx, cred.Access)
	if err != nil {
		return Outcome{}, err
	}
	if !valid {
		if !f.cfg.Refresh || !cred.CanRefresh() {
			log.Warn("token is invalid, stopping")
			f.setState(id, StateStopped)
			return Outcome{State: StateStopped}, fmt.Errorf("account %d: %w", id, blum.ErrSessionInvalid)
		}

		log.Warn("token is invalid, refreshing")
		f.setState(id, StateRefreshing)
		cred, err = f.refresh(ctx, log, id, cred)
		if err != nil {
			return Outcome{}, err
		}
	}

	f.setState(id, StateFetchingStatus)
	status, err := f.client.Balance(ctx, cred.Access)
	if err != nil {
		return Outcome{}, err
	}

	now := f.now()
	f.recorder.Balance(id, status.AvailableBalance, status.FarmBalance)
	f.updateStatus(id, func(s *AccountStatus) {
		s.AvailableBalance = status.AvailableBalance
		s.FarmBalance = status.FarmBalance
		s.EndTime = status.EndTime
		s.UpdatedAt = now
		s.LastError = ""
	})

	var untilFriends time.Duration
	if f.cfg.FriendsClaim {
		untilFriends, err = f.claimFriendsIfDue(ctx, log, id, cred, now)
		if err != nil {
			log.Warn("friends claim failed", "error", err, "retry_in", f.cfg.RetryDelay)
			f.recorder.Failed(blum.Kind(err))
			untilFriends = f.cfg.RetryDelay
		}
	}

	if !status.HasCycle() {
		if f.isPendingStart(id) {
			log.Info("previous start did not go through, starting again")
			return f.startNext(ctx, log, id, cred, status, now)
		}
		log.Warn("no farming information found, polling again", "retry_in", f.cfg.MinPollInterval)
		return Outcome{State: StateFetchingStatus, Wait: f.cfg.MinPollInterval}, nil
	}

	if !status.EndTime.After(now) {
		return f.completeCycle(ctx, log, id, cred, status, now)
	}

	wait := WaitDuration(status.EndTime, now)
	if f.cfg.FriendsClaim && untilFriends < wait {
		wait = untilFriends
	}

	log.Info("farming is still in progress",
		"balance", status.AvailableBalance,
		"farm_balance", status.FarmBalance,
		"next_claim", FormatClaimTime(status.EndTime),
		"wait", wait,
	)
	f.setState(id, StateWaiting)

	return Outcome{State: StateWaiting, Wait: wait}, nil
}

func (f *Farmer) refresh(ctx context.Context, log *slog.Logger, id int, cred credentials.Credential) (credentials.Credential, error) {
	tokens, err := f.client.Refresh(ctx, cred.Refresh)
	if err != nil {
		f.recorder.Refreshed(false)
		return credentials.Credential{}, err
	}
	f.recorder.Refreshed(true)

	next := credentials.Credential{Access: tokens.Access, Refresh: tokens.Refresh}
	if next.Refresh == "" {
		next.Refresh = cred.Refresh
	}
	if err := f.accounts.Update(id, next); err != nil {
		return credentials.Credential{}, err
	}
	log.Info("token refreshed")

	if f.store != nil {
		origin, err := f.accounts.Origin(id)
		if err == nil {
			err = f.store.SaveTokens(id, origin, next)
		}
		if err != nil {
			log.Warn("persist refreshed tokens", "error", err)
		}
	}

	return next, nil
}

// claimFriendsIfDue claims the friends reward once per interval and returns the
// time left until the next claim is due
func (f *Farmer) claimFriendsIfDue(ctx context.Context, log *slog.Logger, id int, cred credentials.Credential, now time.Time) (time.Duration, error) {
	last := f.lastFriendsClaim(log, id)
	if !last.IsZero() && now.Sub(last) < f.cfg.FriendsInterval {
		return last.Add(f.cfg.FriendsInterval).Sub(now), nil
	}

	resp, err := f.client.ClaimFriends(ctx, cred.Access)
	if err != nil {
		return 0, err
	}
	log.Info("friends reward claimed", "response", string(resp))
	f.recorder.FriendsClaimed(id)

	f.mu.Lock()
	f.friendsClaimed[id] = now
	f.mu.Unlock()

	if f.store != nil {
		if err := f.store.SaveFriendsClaim(id, now); err != nil {
			log.Warn("persist friends claim", "error", err)
		}
	}

	return f.cfg.FriendsInterval, nil
}

func (f *Farmer) lastFriendsClaim(log *slog.Logger, id int) time.Time {
	f.mu.Lock()
	last, ok := f.friendsClaimed[id]
	f.mu.Unlock()
	if ok || f.store == nil {
		return last
	}

	last, err := f.store.LastFriendsClaim(id)
	if err != nil {
		log.Warn("load friends claim time", "error", err)
		return time.Time{}
	}

	f.mu.Lock()
	f.friendsClaimed[id] = last
	f.mu.Unlock()
	return last
}

func (f *Farmer) completeCycle(ctx context.Context, log *slog.Logger, id int, cred credentials.Credential, status blum.FarmingStatus, now time.Time) (Outcome, error) {
	f.setState(id, StateClaiming)
	log.Info("farming session has ended, claiming")

	claimResp, err := f.client.Claim(ctx, cred.Access)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("claim response", "response", string(claimResp))
	f.recorder.Claimed(id)
	f.setPendingStart(id, true)

	return f.startNext(ctx, log, id, cred, status, now)
}

// startNext starts the cycle that follows the claim on account id. The rotation
// cursor only moves once the start succeeded
func (f *Farmer) startNext(ctx context.Context, log *slog.Logger, id int, cred credentials.Credential, status blum.FarmingStatus, now time.Time) (Outcome, error) {
	startID, startCred := id, cred
	if f.cfg.Rotate {
		f.setState(id, StateRotating)
		startID = f.rotator.Next()
		var err error
		startCred, err = f.accounts.Get(startID)
		if err != nil {
			return Outcome{}, err
		}
	}

	f.setState(startID, StateStarting)
	startResp, err := f.client.StartFarming(ctx, startCred.Access)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("start response", "started_account", startID, "response", string(startResp))
	f.recorder.Started(startID)
	f.setPendingStart(id, false)

	if f.cfg.Rotate {
		f.rotator.Advance()
		f.setState(id, StateWaiting)
		log.Info("switched account", "next", startID)
	}

	if f.notify != nil {
		f.notify.CycleRestarted(ctx, CycleEvent{
			ClaimedAccount:   id,
			StartedAccount:   startID,
			AvailableBalance: status.AvailableBalance,
			FarmBalance:      status.FarmBalance,
			At:               now,
		})
	}

	return Outcome{State: StateStarting}, nil
}

func (f *Farmer) isPendingStart(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingStart[id]
}

func (f *Farmer) setPendingStart(id int, pending bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pending {
		f.pendingStart[id] = true
	} else {
		delete(f.pendingStart, id)
	}
}

// Statuses returns a snapshot of all accounts ordered by id
func (f *Farmer) Statuses() []AccountStatus {
	active := f.rotator.Current()

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]AccountStatus, 0, len(f.statuses))
	for _, s := range f.statuses {
		st := *s
		st.Active = st.AccountID == active
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

func (f *Farmer) setState(id int, state State) {
	f.updateStatus(id, func(s *AccountStatus) { s.State = state })
}

func (f *Farmer) updateStatus(id int, fn func(s *AccountStatus)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.statuses[id]
	if !ok {
		s = &AccountStatus{AccountID: id}
		f.statuses[id] = s
	}
	fn(s)
}

// WaitDuration returns the time left until end, never negative
func WaitDuration(end, now time.Time) time.Duration {
	if d := end.Sub(now); d > 0 {
		return d
	}
	return 0
}

// FormatClaimTime formats a claim time in local time
func FormatClaimTime(t time.Time) string {
	return t.Local().Format(ClaimTimeLayout)
}

type nopRecorder struct{}

func (nopRecorder) Claimed(int)                   {}
func (nopRecorder) Started(int)                   {}
func (nopRecorder) FriendsClaimed(int)            {}
func (nopRecorder) Refreshed(bool)                {}
func (nopRecorder) Failed(string)                 {}
func (nopRecorder) Balance(int, float64, float64) {}
