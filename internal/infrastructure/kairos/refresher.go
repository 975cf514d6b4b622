package kairos

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

type refreshResult struct {
	accessToken string
	err         error
}

// RefreshFunc обменивает refresh токен на новую пару
type RefreshFunc func(ctx context.Context, refreshToken string) (domain.Tokens, error)

// Refresher хранит токены одной сессии и координирует их обновление.
// Состояния: Idle | Refreshing(waiters). Первый 401 запускает единственный refresh,
// остальные ждут его результата в очереди.
// Set и Clear начинают новое поколение токенов: результат refresh, начатого в прежнем
// поколении (например, до логаута), отбрасывается.
type Refresher struct {
	mu         sync.Mutex
	state      refreshState
	generation uint64
	tokens     domain.Tokens
	waiters  []chan refreshResult
	refresh  RefreshFunc
	onChange func(domain.Tokens)
	logger   *zap.Logger
}

// NewRefresher создает координатор для пары токенов.
// onChange вызывается после каждой смены токенов, в том числе при сбросе сессии (пустые токены).
func NewRefresher(tokens domain.Tokens, refresh RefreshFunc, onChange func(domain.Tokens), logger *zap.Logger) *Refresher {
	return &Refresher{
		state:    stateIdle,
		tokens:   tokens,
		refresh:  refresh,
		onChange: onChange,
		logger:   logger,
	}
}

func (r *Refresher) AccessToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens.AccessToken
}

func (r *Refresher) Tokens() domain.Tokens {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens
}

// Set заменяет токены (логин, логаут)
func (r *Refresher) Set(tokens domain.Tokens) {
	r.mu.Lock()
	r.tokens = tokens
	r.generation++
	r.mu.Unlock()
}

// Clear сбрасывает токены, если сервер не принимает даже обновленный токен
func (r *Refresher) Clear() {
	r.mu.Lock()
	r.tokens = domain.Tokens{}
	r.generation++
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(domain.Tokens{})
	}
}

// Refreshing сообщает, идет ли сейчас обновление
func (r *Refresher) Refreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRefreshing
}

// Refresh возвращает access токен, которым нужно повторить запрос, отвергнутый с stale.
// Если токен уже сменился, refresh не выполняется.
func (r *Refresher) Refresh(ctx context.Context, stale string) (string, error) {
	r.mu.Lock()
	if r.state == stateIdle && r.tokens.AccessToken != "" && r.tokens.AccessToken != stale {
		token := r.tokens.AccessToken
		r.mu.Unlock()
		return token, nil
	}
	if r.state == stateIdle && r.tokens.RefreshToken == "" {
		r.mu.Unlock()
		return "", errors.ErrAuthExpired
	}

	ch := make(chan refreshResult, 1)
	r.waiters = append(r.waiters, ch)
	if r.state == stateIdle {
		r.state = stateRefreshing
		go r.run(context.WithoutCancel(ctx), r.tokens.RefreshToken, r.generation)
	}
	r.mu.Unlock()

	select {
	case res := <-ch:
		return res.accessToken, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// run выполняет refresh. Ожидающие запросы получают результат до вызова onChange.
func (r *Refresher) run(ctx context.Context, refreshToken string, generation uint64) {
	tokens, err := r.refresh(ctx, refreshToken)

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.state = stateIdle
	superseded := r.generation != generation
	switch {
	case superseded:
	case err != nil:
		r.tokens = domain.Tokens{}
		r.generation++
	default:
		if tokens.RefreshToken == "" {
			tokens.RefreshToken = refreshToken
		}
		r.tokens = tokens
		r.generation++
	}
	current := r.tokens
	r.mu.Unlock()

	tokenRefreshWaiters.Observe(float64(len(waiters)))

	var res refreshResult
	switch {
	case superseded:
		tokenRefreshes.WithLabelValues("superseded").Inc()
		r.logger.Info("Token refresh result discarded, tokens changed meanwhile",
			zap.Int("waiters", len(waiters)))
		res = refreshResult{err: errors.ErrAuthExpired}
	case err != nil:
		tokenRefreshes.WithLabelValues("failure").Inc()
		r.logger.Warn("Token refresh failed, session cleared",
			zap.Int("waiters", len(waiters)),
			zap.Error(err))
		res = refreshResult{err: errors.ErrAuthExpired.Wrap(err)}
	default:
		tokenRefreshes.WithLabelValues("success").Inc()
		r.logger.Debug("Token refreshed", zap.Int("waiters", len(waiters)))
		res = refreshResult{accessToken: current.AccessToken}
	}

	for _, w := range waiters {
		w <- res
	}
	if !superseded && r.onChange != nil {
		r.onChange(current)
	}
}
