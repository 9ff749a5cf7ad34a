// File: internal/usecase/lifecycle_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/adapter"
	"telegram-yoga-subscription/internal/domain/ports/repository"
	"telegram-yoga-subscription/internal/infra/metrics"
)

// Compile-time check
var _ LifecycleUseCase = (*lifecycleUC)(nil)

const (
	lifecycleJobName = "subscription-lifecycle"
	// warningWindow is how far before expiry the warning notification fires.
	warningWindow = 3 * 24 * time.Hour
)

// LifecycleUseCase ages subscriptions through warning and expiry states.
// RunOnce is stateless and re-entrant: every per-row transition is a
// conditional update, so an overlapping run at worst duplicates a
// notification, never a state change.
type LifecycleUseCase interface {
	RunOnce(ctx context.Context) (*model.JobRun, error)
}

type lifecycleUC struct {
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	products repository.ProductRepository
	jobRuns  repository.JobRunRepository
	sender   adapter.MessageSender
	log      *zerolog.Logger
}

func NewLifecycleUseCase(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	products repository.ProductRepository,
	jobRuns repository.JobRunRepository,
	sender adapter.MessageSender,
	logger *zerolog.Logger,
) *lifecycleUC {
	l := logger.With().Str("component", "LifecycleUC").Logger()
	return &lifecycleUC{subs: subs, users: users, products: products, jobRuns: jobRuns, sender: sender, log: &l}
}

func (u *lifecycleUC) RunOnce(ctx context.Context) (*model.JobRun, error) {
	now := time.Now()
	var errs []string
	notified := 0
	expired := 0

	// Warning pass: 3-day heads-up, then flip to EXPIRING. Delivery failure is
	// recorded but the flip still happens; the warning is not retried since
	// notify_3d_sent is set with it.
	warn, err := u.subs.FindExpiringUnnotified(ctx, repository.NoTX, warningWindow)
	if err != nil {
		errs = append(errs, fmt.Sprintf("warning pass query: %v", err))
	}
	for _, sub := range warn {
		if err := u.notify(ctx, sub, warningText); err != nil {
			errs = append(errs, fmt.Sprintf("notify error (%s): %v", sub.ID, err))
		}
		ok, err := u.subs.MarkExpiring(ctx, repository.NoTX, sub.ID, now)
		if err != nil {
			errs = append(errs, fmt.Sprintf("mark expiring (%s): %v", sub.ID, err))
			continue
		}
		if ok {
			notified++
		}
	}

	// Expiry pass: close out anything past its end date that an administrator
	// has not frozen. Notification is best effort after the flip.
	past, err := u.subs.FindExpired(ctx, repository.NoTX)
	if err != nil {
		errs = append(errs, fmt.Sprintf("expiry pass query: %v", err))
	}
	for _, sub := range past {
		ok, err := u.subs.MarkExpired(ctx, repository.NoTX, sub.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("expiry error (%s): %v", sub.ID, err))
			continue
		}
		if !ok {
			// raced with an overlapping run or an admin action
			continue
		}
		expired++
		if err := u.notify(ctx, sub, expiryText); err != nil {
			errs = append(errs, fmt.Sprintf("notify error (%s): %v", sub.ID, err))
		}
	}

	status := model.JobRunStatusSuccess
	if len(errs) > 0 {
		status = model.JobRunStatusPartialFail
	}
	run := &model.JobRun{
		ID:             ulid.Make().String(),
		JobName:        lifecycleJobName,
		Status:         status,
		ProcessedCount: notified + expired,
		Errors:         errs,
		FinishedAt:     time.Now(),
	}
	if err := u.jobRuns.Save(ctx, repository.NoTX, run); err != nil {
		u.log.Error().Err(err).Msg("failed to persist job run")
	}

	metrics.IncLifecycleRun(string(status))
	metrics.IncSubscriptionsExpired(expired)
	u.log.Info().
		Str("run_id", run.ID).
		Int("notified", notified).
		Int("expired", expired).
		Int("errors", len(errs)).
		Msg("lifecycle sweep finished")
	return run, nil
}

// notify resolves the recipient and course title and sends one message.
// Users without a linked Telegram account are skipped silently.
func (u *lifecycleUC) notify(ctx context.Context, sub *model.Subscription, text func(fullName, course string) string) error {
	user, err := u.users.FindByID(ctx, repository.NoTX, sub.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.TelegramID == 0 {
		return nil
	}
	title := ""
	if product, err := u.products.FindByID(ctx, repository.NoTX, sub.ProductID); err == nil {
		title = product.Title
	}
	if err := u.sender.SendMessage(ctx, user.TelegramID, text(user.FullName, title)); err != nil {
		metrics.IncNotification("failed")
		return err
	}
	metrics.IncNotification("sent")
	return nil
}

func warningText(fullName, course string) string {
	return fmt.Sprintf(
		"<b>Ҳурматли %s!</b>\n\nСизнинг \"%s\" курсига бўлган обунангиз 3 кундан сўнг тугайди. Обунани давом эттириш учун иловадаги 'Сотиб олиш' бўлимига ўтинг.\n\n--- \n<i>Ваш доступ к курсу \"%s\" истекает через 3 дня.</i>",
		fullName, course, course,
	)
}

func expiryText(_, course string) string {
	return fmt.Sprintf(
		"<b>Обуна тугади.</b>\n\n\"%s\" курсига бўлган доступингиз вақти тугагани сабабли ёпилди. Давом эттириш учун қайта харид қилинг.\n\n--- \n<i>Срок действия подписки на курс \"%s\" окончен.</i>",
		course, course,
	)
}
