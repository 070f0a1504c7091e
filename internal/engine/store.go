package engine

import (
	"context"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

// Store 是引擎的工作单元抽象：InTx 在一个可序列化的事务里执行 fn，
// fn 返回错误时整个事务回滚。容量检查与写入必须发生在同一个事务中，
// 否则并发报名可能同时读到未满的人数而超卖。
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx 是事务内可用的存取原语。查询不到时返回 (nil, nil)，由引擎决定语义。
type Tx interface {
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	// CountConfirmed 统计班次当前已确认的报名数。
	// 人数永远现场统计，不落为冗余字段，避免计数漂移。
	CountConfirmed(ctx context.Context, shiftID int64) (int32, error)

	GetSignup(ctx context.Context, shiftID, userID int64) (*domain.Signup, error)
	GetSignupByID(ctx context.Context, id int64) (*domain.Signup, error)
	// UpsertConfirmedSignup 把 (shift, user) 的报名行置为 CONFIRMED：
	// 已有行（含已取消的）被复用，清除 cancelled_at 并刷新 confirmed_at
	UpsertConfirmedSignup(ctx context.Context, shiftID, userID int64, comment *string) (*domain.Signup, error)
	MarkSignupCancelled(ctx context.Context, id int64) (*domain.Signup, error)

	GetWaitlistEntry(ctx context.Context, shiftID, userID int64) (*domain.WaitlistEntry, error)
	GetWaitlistEntryByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error)
	CreateWaitlistEntry(ctx context.Context, shiftID, userID int64, comment *string) (*domain.WaitlistEntry, error)
	DeleteWaitlistEntry(ctx context.Context, id int64) error
	// OldestEligibleWaitlistEntry 返回班次上等待最久且未被拉黑的候补，
	// 创建时间相同时以 ID 较小者优先；被拉黑的候补跳过但保留在队列里
	OldestEligibleWaitlistEntry(ctx context.Context, shiftID int64) (*domain.WaitlistEntry, error)
}
