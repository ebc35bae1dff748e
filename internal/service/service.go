// Package service реализует бизнес-логику сервиса лаунчпада: последовательное исполнение команд,
// журналирование операций, восстановление состояния и публикацию событий.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/events"
	"github.com/mmeshcher/launchpad/internal/funding"
	"github.com/mmeshcher/launchpad/internal/model"
	"github.com/mmeshcher/launchpad/internal/repository"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrFaucetDisabled возвращается при попытке выпуска токенов без включённого крана.
	ErrFaucetDisabled = errors.New("faucet disabled")
	// ErrUnknownOperation возвращается для записи журнала неизвестного типа.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	AppendOperation(ctx context.Context, op model.Operation, events []model.Event) (int64, error)
	LoadOperations(ctx context.Context) ([]model.Operation, error)
	GetEventsByFunding(ctx context.Context, fundingID uint64, limit int) ([]model.Event, error)
}

// PriceSource возвращает базовую цену токена от оракула.
type PriceSource interface {
	Price(token string) (uint64, bool)
}

// Option настраивает сервис.
type Option func(*Service)

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFaucet включает выпуск платёжных токенов по запросу пользователя.
func WithFaucet(enabled bool) Option {
	return func(s *Service) { s.faucet = enabled }
}

// Service содержит бизнес-логику сервиса лаунчпада.
// Все команды исполняются строго последовательно под одной блокировкой.
type Service struct {
	mu        sync.Mutex
	repo      Repository
	platform  *funding.Platform
	prices    PriceSource
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
	faucet    bool
}

// NewService создаёт сервис с пустым состоянием. Перед обработкой запросов состояние
// восстанавливается из журнала вызовом Restore.
func NewService(repo Repository, prices PriceSource, publisher events.Publisher, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:      repo,
		platform:  funding.NewPlatform(nil),
		prices:    prices,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}

// RegisterUser регистрирует нового пользователя и возвращает его идентичность.
func (s *Service) RegisterUser(ctx context.Context, login, password string) (string, error) {
	hashed := hashPassword(login, password)
	if _, err := s.repo.CreateUser(ctx, login, hashed); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return "", repository.ErrUserExists
		}
		return "", err
	}
	return login, nil
}

// AuthenticateUser проверяет логин и пароль пользователя и возвращает его идентичность.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (string, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if subtle.ConstantTimeCompare(hashPassword(login, password), u.PasswordHash) != 1 {
		return "", ErrInvalidCredentials
	}

	return u.Login, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// Restore восстанавливает состояние платформы, повторно применяя журнал операций.
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restore(ctx)
}

func (s *Service) restore(ctx context.Context) error {
	ops, err := s.repo.LoadOperations(ctx)
	if err != nil {
		return fmt.Errorf("load operations: %w", err)
	}

	p := funding.NewPlatform(nil)
	for _, op := range ops {
		if _, _, err := apply(p, op); err != nil {
			return fmt.Errorf("replay operation %d (%s): %w", op.Seq, op.Kind, err)
		}
	}

	s.platform = p
	s.logger.Info("state restored", zap.Int("operations", len(ops)), zap.Int("fundings", p.FundingCount()))
	return nil
}

// execute применяет команду, записывает её в журнал и публикует порождённые события.
// Если журнал недоступен, состояние в памяти откатывается повторным применением журнала.
func (s *Service) execute(ctx context.Context, kind model.OperationKind, actor string, cmd any) (any, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op := model.Operation{
		Kind:  kind,
		Actor: actor,
		// точность совпадает с timestamptz, иначе восстановление может разойтись с исходным исполнением
		ExecutedAt: s.now().UTC().Truncate(time.Microsecond),
		Payload:    payload,
	}

	res, evs, err := apply(s.platform, op)
	if err != nil {
		return nil, err
	}

	for i := range evs {
		evs[i].ID = uuid.NewString()
	}

	seq, err := s.repo.AppendOperation(ctx, op, evs)
	if err != nil {
		s.logger.Error("journal operation error", zap.String("kind", string(kind)), zap.Error(err))
		if restoreErr := s.restore(context.WithoutCancel(ctx)); restoreErr != nil {
			s.logger.Error("state restore error", zap.Error(restoreErr))
		}
		return nil, fmt.Errorf("journal operation: %w", err)
	}

	s.logger.Debug("operation applied",
		zap.Int64("seq", seq),
		zap.String("kind", string(kind)),
		zap.String("actor", actor),
		zap.Int("events", len(evs)),
	)

	if s.publisher != nil {
		for _, ev := range evs {
			if err := s.publisher.Publish(ctx, ev); err != nil {
				s.logger.Warn("publish event error", zap.String("eventID", ev.ID), zap.String("type", string(ev.Type)), zap.Error(err))
			}
		}
	}

	return res, nil
}

// CreateFunding создаёт кампанию от имени actor.
func (s *Service) CreateFunding(ctx context.Context, actor string, params model.FundingParams) (model.FundingRecord, error) {
	res, err := s.execute(ctx, model.OpInitialize, actor, params)
	if err != nil {
		return model.FundingRecord{}, err
	}
	return res.(model.FundingRecord), nil
}

// Funding возвращает запись кампании.
func (s *Service) Funding(_ context.Context, id uint64) (model.FundingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.Funding(id)
}

// Owners возвращает владельцев кампании.
func (s *Service) Owners(_ context.Context, id uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.Owners(id)
}

// Balance возвращает баланс аккаунта в токене.
func (s *Service) Balance(_ context.Context, token, account string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.BalanceOf(token, account)
}

// Approve разрешает spender списывать токены actor.
func (s *Service) Approve(ctx context.Context, actor, token, spender string, amount uint64) error {
	_, err := s.execute(ctx, model.OpApprove, actor, approveCommand{Token: token, Spender: spender, Amount: amount})
	return err
}

// Transfer переводит токены actor другому аккаунту.
func (s *Service) Transfer(ctx context.Context, actor, token, to string, amount uint64) error {
	_, err := s.execute(ctx, model.OpTransfer, actor, transferCommand{Token: token, To: to, Amount: amount})
	return err
}

// Mint выпускает токены на счёт actor. Доступно только при включённом кране.
func (s *Service) Mint(ctx context.Context, actor, token string, amount uint64) error {
	if !s.faucet {
		return ErrFaucetDisabled
	}
	_, err := s.execute(ctx, model.OpMint, actor, mintCommand{Token: token, Amount: amount})
	return err
}

// PriceToken возвращает ключ, по которому у оракула запрашивается базовая цена кампании.
func PriceToken(rec model.FundingRecord) string {
	if rec.ProjectToken != "" {
		return rec.ProjectToken
	}
	return "funding-" + strconv.FormatUint(rec.ID, 10)
}

// PriceTokens возвращает ключи цен всех кампаний с discount-инструментом.
func (s *Service) PriceTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for id := uint64(1); id <= uint64(s.platform.FundingCount()); id++ {
		rec, err := s.platform.Funding(id)
		if err != nil {
			continue
		}
		if _, ok := rec.Instruments[model.InstrumentDiscount]; ok {
			seen[PriceToken(rec)] = struct{}{}
		}
	}

	res := make([]string, 0, len(seen))
	for t := range seen {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}

func (s *Service) basePrice(id uint64, kind model.InstrumentKind) (uint64, error) {
	if kind != model.InstrumentDiscount {
		return 0, nil
	}

	s.mu.Lock()
	rec, err := s.platform.Funding(id)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	if s.prices == nil {
		return 0, funding.ErrPriceUnavailable
	}
	price, ok := s.prices.Price(PriceToken(rec))
	if !ok {
		return 0, fmt.Errorf("%w: %s", funding.ErrPriceUnavailable, PriceToken(rec))
	}
	return price, nil
}

// Instrument возвращает состояние движка ценообразования.
func (s *Service) Instrument(_ context.Context, id uint64, kind model.InstrumentKind) (model.InstrumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.Instrument(s.now(), id, kind)
}

// Buy покупает инструмент от имени actor. Ровно одно из quantity и payment должно быть ненулевым.
// Цена оракула фиксируется в журнале вместе с командой.
func (s *Service) Buy(ctx context.Context, actor string, id uint64, kind model.InstrumentKind, quantity, payment uint64) (funding.BuyResult, error) {
	price, err := s.basePrice(id, kind)
	if err != nil {
		return funding.BuyResult{}, err
	}

	res, err := s.execute(ctx, model.OpBuy, actor, buyCommand{
		FundingID: id,
		Kind:      kind,
		Quantity:  quantity,
		Payment:   payment,
		BasePrice: price,
	})
	if err != nil {
		return funding.BuyResult{}, err
	}
	return res.(funding.BuyResult), nil
}

// Holdings возвращает остатки actor по инструментам кампании.
func (s *Service) Holdings(_ context.Context, actor string, id uint64) ([]model.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.Holdings(id, actor)
}

// Claim погашает инструменты actor.
func (s *Service) Claim(ctx context.Context, actor string, id uint64) (uint64, error) {
	res, err := s.execute(ctx, model.OpClaim, actor, fundingCommand{FundingID: id})
	if err != nil {
		return 0, err
	}
	return res.(uint64), nil
}

// Stake создаёт позицию стейкинга actor.
func (s *Service) Stake(ctx context.Context, actor string, id, quantity uint64) (model.StakePosition, error) {
	res, err := s.execute(ctx, model.OpStake, actor, stakeCommand{FundingID: id, Quantity: quantity})
	if err != nil {
		return model.StakePosition{}, err
	}
	return res.(model.StakePosition), nil
}

// Position возвращает позицию стейкинга с наградой, начисленной на текущий момент.
func (s *Service) Position(_ context.Context, id, position uint64) (model.StakePositionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.platform.Position(id, position)
	if err != nil {
		return model.StakePositionView{}, err
	}
	reward, err := s.platform.AccruedReward(s.now(), id, position)
	if err != nil {
		return model.StakePositionView{}, err
	}
	return model.StakePositionView{StakePosition: pos, AccruedReward: reward}, nil
}

// Positions возвращает все позиции actor в кампании.
func (s *Service) Positions(_ context.Context, actor string, id uint64) ([]model.StakePosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.PositionsOf(id, actor)
}

// Unstake досрочно закрывает позицию actor.
func (s *Service) Unstake(ctx context.Context, actor string, id, position uint64) (uint64, error) {
	res, err := s.execute(ctx, model.OpUnstake, actor, positionCommand{FundingID: id, Position: position})
	if err != nil {
		return 0, err
	}
	return res.(uint64), nil
}

// ClaimStake погашает позицию actor после даты погашения.
func (s *Service) ClaimStake(ctx context.Context, actor string, id, position uint64) (uint64, error) {
	res, err := s.execute(ctx, model.OpClaimStake, actor, positionCommand{FundingID: id, Position: position})
	if err != nil {
		return 0, err
	}
	return res.(uint64), nil
}

// Reserve возвращает состояние резерва кампании.
func (s *Service) Reserve(_ context.Context, id uint64) (model.ReserveBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.Reserve(id)
}

// Withdraw выводит средства из резерва кампании с единственным владельцем.
func (s *Service) Withdraw(ctx context.Context, actor string, id uint64, recipient string, amount uint64) error {
	_, err := s.execute(ctx, model.OpWithdraw, actor, withdrawCommand{FundingID: id, Recipient: recipient, Amount: amount})
	return err
}

// CreateProposal открывает предложение о выводе средств.
func (s *Service) CreateProposal(ctx context.Context, actor string, id uint64, recipient string, amount uint64) (model.WithdrawProposal, error) {
	res, err := s.execute(ctx, model.OpCreateProposal, actor, withdrawCommand{FundingID: id, Recipient: recipient, Amount: amount})
	if err != nil {
		return model.WithdrawProposal{}, err
	}
	return res.(model.WithdrawProposal), nil
}

// Proposals возвращает предложения о выводе по кампании.
func (s *Service) Proposals(_ context.Context, id uint64) ([]model.WithdrawProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform.Proposals(id)
}

// Vote учитывает голос actor по предложению.
func (s *Service) Vote(ctx context.Context, actor string, proposalID uint64, approve bool) (model.WithdrawProposal, error) {
	res, err := s.execute(ctx, model.OpVote, actor, voteCommand{ProposalID: proposalID, Approve: approve})
	if err != nil {
		return model.WithdrawProposal{}, err
	}
	return res.(model.WithdrawProposal), nil
}

// Events возвращает последние события кампании.
func (s *Service) Events(ctx context.Context, id uint64, limit int) ([]model.Event, error) {
	if _, err := s.Funding(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetEventsByFunding(ctx, id, limit)
}
