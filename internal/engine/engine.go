// Package engine 实现报名、候补与晋升的事务核心。
// 所有检查-写入序列都在 Store.InTx 提供的单个事务内完成。
package engine

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
)

type Engine struct {
	store    Store
	clock    *shifttime.Clock
	blackout time.Duration // 开班前多久禁止志愿者自行取消

	now func() time.Time
}

func New(store Store, clock *shifttime.Clock, blackout time.Duration) *Engine {
	return &Engine{
		store:    store,
		clock:    clock,
		blackout: blackout,
		now:      time.Now,
	}
}

// SignUp 报名一个班次。管理员替他人报名时豁免满员检查，
// 管理员本人报名不豁免；报名成功会顺带清掉本人在该班次上的候补。
func (e *Engine) SignUp(ctx context.Context, shiftID int64, req domain.SignupRequest) (*domain.Signup, error) {
	var signup *domain.Signup

	err := e.store.InTx(ctx, func(tx Tx) error {
		shift, err := tx.GetShift(ctx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotFound
		}

		if !req.BypassPastCheck() && e.clock.IsPast(shift, e.now()) {
			return ErrShiftInPast
		}

		target, err := tx.GetUser(ctx, req.TargetUserID())
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUserNotFound
		}
		if target.IsBlocked {
			return ErrVolunteerBlocked
		}

		headcount, err := tx.CountConfirmed(ctx, shiftID)
		if err != nil {
			return err
		}
		if headcount >= shift.MaxVolunteers && !req.BypassCapacity() {
			return ErrShiftFull
		}

		existing, err := tx.GetSignup(ctx, shiftID, target.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == domain.SignupStatusConfirmed {
			return ErrAlreadySigned
		}

		// 直接报名成功后不再需要排队
		entry, err := tx.GetWaitlistEntry(ctx, shiftID, target.ID)
		if err != nil {
			return err
		}
		if entry != nil {
			if err := tx.DeleteWaitlistEntry(ctx, entry.ID); err != nil {
				return err
			}
		}

		signup, err = tx.UpsertConfirmedSignup(ctx, shiftID, target.ID, req.SignupComment())
		return err
	})
	if err != nil {
		return nil, err
	}

	return signup, nil
}

// JoinWaitlist 在班次已满时登记候补；未满时拒绝并提示直接报名
func (e *Engine) JoinWaitlist(ctx context.Context, shiftID, userID int64, comment *string) (*domain.WaitlistEntry, error) {
	var entry *domain.WaitlistEntry

	err := e.store.InTx(ctx, func(tx Tx) error {
		shift, err := tx.GetShift(ctx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotFound
		}

		if e.clock.IsPast(shift, e.now()) {
			return ErrShiftInPast
		}

		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.IsBlocked {
			return ErrVolunteerBlocked
		}

		headcount, err := tx.CountConfirmed(ctx, shiftID)
		if err != nil {
			return err
		}
		if headcount < shift.MaxVolunteers {
			return ErrShiftHasCapacity
		}

		existing, err := tx.GetSignup(ctx, shiftID, userID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == domain.SignupStatusConfirmed {
			return ErrAlreadySigned
		}

		queued, err := tx.GetWaitlistEntry(ctx, shiftID, userID)
		if err != nil {
			return err
		}
		if queued != nil {
			return ErrAlreadyWaitlisted
		}

		entry, err = tx.CreateWaitlistEntry(ctx, shiftID, userID, comment)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

type Promotion struct {
	Signup       *domain.Signup        `json:"signup"`
	PromotedFrom *domain.WaitlistEntry `json:"promotedFrom"`
}

type CancelResult struct {
	Cancelled *domain.Signup `json:"cancelled"`
	Promotion *Promotion     `json:"promotion"`
	// NoOp 表示报名本来就是已取消状态，什么都没发生
	NoOp bool `json:"-"`
}

// Cancel 取消一个报名，并在同一事务内最多晋升一名候补。
// 每次取消只释放一个名额，所以也只晋升一个人，不做全量补位。
func (e *Engine) Cancel(ctx context.Context, signupID, actingUserID int64, isAdmin bool) (*CancelResult, error) {
	result := &CancelResult{}

	err := e.store.InTx(ctx, func(tx Tx) error {
		signup, err := tx.GetSignupByID(ctx, signupID)
		if err != nil {
			return err
		}
		if signup == nil {
			return ErrSignupNotFound
		}

		if signup.UserID != actingUserID && !isAdmin {
			return ErrForbidden
		}

		shift, err := tx.GetShift(ctx, signup.ShiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotFound
		}

		// 志愿者不能在开班前的封锁窗口内自行取消，管理员不受限
		if !isAdmin {
			if e.clock.ShiftStart(shift).Sub(e.now()) < e.blackout {
				return ErrCancelTooLate
			}
		}

		// 重复取消是无操作，直接报成功且不触发晋升
		if signup.Status == domain.SignupStatusCancelled {
			result.Cancelled = signup
			result.NoOp = true
			return nil
		}

		cancelled, err := tx.MarkSignupCancelled(ctx, signup.ID)
		if err != nil {
			return err
		}
		result.Cancelled = cancelled

		promotion, err := e.promoteNext(ctx, tx, shift)
		if err != nil {
			return err
		}
		result.Promotion = promotion

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// promoteNext 在事务内把等待最久的合格候补转为已确认报名。
// 名额未释放（人数仍 >= 容量）或队列里没有合格候补时返回 nil。
func (e *Engine) promoteNext(ctx context.Context, tx Tx, shift *domain.Shift) (*Promotion, error) {
	headcount, err := tx.CountConfirmed(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	if headcount >= shift.MaxVolunteers {
		return nil, nil
	}

	entry, err := tx.OldestEligibleWaitlistEntry(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	signup, err := tx.UpsertConfirmedSignup(ctx, shift.ID, entry.UserID, entry.Comment)
	if err != nil {
		return nil, err
	}

	if err := tx.DeleteWaitlistEntry(ctx, entry.ID); err != nil {
		return nil, err
	}

	return &Promotion{Signup: signup, PromotedFrom: entry}, nil
}

// LeaveWaitlistByID 按条目 ID 撤销候补；本人或管理员可操作。
// 撤销不释放已确认名额，因此不触发晋升。
func (e *Engine) LeaveWaitlistByID(ctx context.Context, entryID, actingUserID int64, isAdmin bool) (*domain.WaitlistEntry, error) {
	var entry *domain.WaitlistEntry

	err := e.store.InTx(ctx, func(tx Tx) error {
		found, err := tx.GetWaitlistEntryByID(ctx, entryID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrWaitlistEntryNotFound
		}

		if found.UserID != actingUserID && !isAdmin {
			return ErrForbidden
		}

		entry = found
		return tx.DeleteWaitlistEntry(ctx, found.ID)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// LeaveWaitlistByShift 按 (班次, 本人) 撤销自己的候补
func (e *Engine) LeaveWaitlistByShift(ctx context.Context, shiftID, actingUserID int64) (*domain.WaitlistEntry, error) {
	var entry *domain.WaitlistEntry

	err := e.store.InTx(ctx, func(tx Tx) error {
		found, err := tx.GetWaitlistEntry(ctx, shiftID, actingUserID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrWaitlistEntryNotFound
		}

		entry = found
		return tx.DeleteWaitlistEntry(ctx, found.ID)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}
