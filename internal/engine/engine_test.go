package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
)

// memStore 是测试用的内存存储，用互斥锁把 InTx 串行化，
// 效果等同于可序列化隔离级别。
type memStore struct {
	mu sync.Mutex

	shifts   map[int64]*domain.Shift
	users    map[int64]*domain.User
	signups  map[int64]*domain.Signup
	waitlist map[int64]*domain.WaitlistEntry

	nextSignupID int64
	nextEntryID  int64
}

func newMemStore() *memStore {
	return &memStore{
		shifts:   make(map[int64]*domain.Shift),
		users:    make(map[int64]*domain.User),
		signups:  make(map[int64]*domain.Signup),
		waitlist: make(map[int64]*domain.WaitlistEntry),
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{s: s})
}

type memTx struct {
	s *memStore
}

func (t *memTx) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	return t.s.shifts[id], nil
}

func (t *memTx) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return t.s.users[id], nil
}

func (t *memTx) CountConfirmed(ctx context.Context, shiftID int64) (int32, error) {
	var count int32
	for _, signup := range t.s.signups {
		if signup.ShiftID == shiftID && signup.Status == domain.SignupStatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (t *memTx) GetSignup(ctx context.Context, shiftID, userID int64) (*domain.Signup, error) {
	for _, signup := range t.s.signups {
		if signup.ShiftID == shiftID && signup.UserID == userID {
			return signup, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetSignupByID(ctx context.Context, id int64) (*domain.Signup, error) {
	return t.s.signups[id], nil
}

func (t *memTx) UpsertConfirmedSignup(ctx context.Context, shiftID, userID int64, comment *string) (*domain.Signup, error) {
	now := time.Now()

	existing, _ := t.GetSignup(ctx, shiftID, userID)
	if existing != nil {
		existing.Status = domain.SignupStatusConfirmed
		existing.Comment = comment
		existing.ConfirmedAt = &now
		existing.CancelledAt = nil
		return existing, nil
	}

	t.s.nextSignupID++
	signup := &domain.Signup{
		ID:          t.s.nextSignupID,
		ShiftID:     shiftID,
		UserID:      userID,
		Status:      domain.SignupStatusConfirmed,
		Comment:     comment,
		ConfirmedAt: &now,
		CreatedAt:   now,
	}
	t.s.signups[signup.ID] = signup
	return signup, nil
}

func (t *memTx) MarkSignupCancelled(ctx context.Context, id int64) (*domain.Signup, error) {
	signup := t.s.signups[id]
	now := time.Now()
	signup.Status = domain.SignupStatusCancelled
	signup.CancelledAt = &now
	return signup, nil
}

func (t *memTx) GetWaitlistEntry(ctx context.Context, shiftID, userID int64) (*domain.WaitlistEntry, error) {
	for _, entry := range t.s.waitlist {
		if entry.ShiftID == shiftID && entry.UserID == userID {
			return entry, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetWaitlistEntryByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	return t.s.waitlist[id], nil
}

func (t *memTx) CreateWaitlistEntry(ctx context.Context, shiftID, userID int64, comment *string) (*domain.WaitlistEntry, error) {
	t.s.nextEntryID++
	entry := &domain.WaitlistEntry{
		ID:        t.s.nextEntryID,
		ShiftID:   shiftID,
		UserID:    userID,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	t.s.waitlist[entry.ID] = entry
	return entry, nil
}

func (t *memTx) DeleteWaitlistEntry(ctx context.Context, id int64) error {
	delete(t.s.waitlist, id)
	return nil
}

func (t *memTx) OldestEligibleWaitlistEntry(ctx context.Context, shiftID int64) (*domain.WaitlistEntry, error) {
	var oldest *domain.WaitlistEntry
	for _, entry := range t.s.waitlist {
		if entry.ShiftID != shiftID {
			continue
		}
		if t.s.users[entry.UserID].IsBlocked {
			continue
		}
		if oldest == nil ||
			entry.CreatedAt.Before(oldest.CreatedAt) ||
			(entry.CreatedAt.Equal(oldest.CreatedAt) && entry.ID < oldest.ID) {
			oldest = entry
		}
	}
	return oldest, nil
}

/**********************************************
 * 测试基架
 **********************************************/

type fixture struct {
	store  *memStore
	engine *Engine
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock, err := shifttime.NewClock("Asia/Shanghai")
	require.NoError(t, err)

	store := newMemStore()
	eng := New(store, clock, 24*time.Hour)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, clock.Location())
	eng.now = func() time.Time { return now }

	return &fixture{store: store, engine: eng, now: now}
}

func (f *fixture) addUser(id int64, blocked bool) {
	f.store.users[id] = &domain.User{
		ID:        id,
		Name:      "志愿者",
		Role:      domain.RoleVolunteer,
		IsBlocked: blocked,
	}
}

// addShift 创建一个在三天后开始的班次，远在取消封锁窗口之外
func (f *fixture) addShift(id int64, maxVolunteers int32) *domain.Shift {
	shift := &domain.Shift{
		ID:            id,
		Title:         "早班",
		Type:          domain.ShiftTypeMorning,
		Date:          f.now.AddDate(0, 0, 3),
		StartTime:     "09:00",
		EndTime:       "13:00",
		MaxVolunteers: maxVolunteers,
	}
	f.store.shifts[id] = shift
	return shift
}

func (f *fixture) addPastShift(id int64) *domain.Shift {
	shift := &domain.Shift{
		ID:            id,
		Title:         "早班",
		Type:          domain.ShiftTypeMorning,
		Date:          f.now.AddDate(0, 0, -1),
		StartTime:     "09:00",
		EndTime:       "13:00",
		MaxVolunteers: 5,
	}
	f.store.shifts[id] = shift
	return shift
}

func (f *fixture) waitlistEntry(userID int64, createdAt time.Time) *domain.WaitlistEntry {
	f.store.nextEntryID++
	entry := &domain.WaitlistEntry{
		ID:        f.store.nextEntryID,
		ShiftID:   1,
		UserID:    userID,
		CreatedAt: createdAt,
	}
	f.store.waitlist[entry.ID] = entry
	return entry
}

/**********************************************
 * 报名
 **********************************************/

func TestSignUpConfirmsUntilFull(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 2)
	f.addUser(1, false)
	f.addUser(2, false)
	f.addUser(3, false)

	ctx := context.Background()

	for _, userID := range []int64{1, 2} {
		signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: userID})
		require.NoError(t, err)
		assert.Equal(t, domain.SignupStatusConfirmed, signup.Status)
	}

	_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 3})
	assert.ErrorIs(t, err, ErrShiftFull)
}

func TestSignUpConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 2)

	const volunteers = 20
	for i := int64(1); i <= volunteers; i++ {
		f.addUser(i, false)
	}

	ctx := context.Background()
	errs := make(chan error, volunteers)

	var wg sync.WaitGroup
	for i := int64(1); i <= volunteers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: userID})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	confirmed := 0
	full := 0
	for err := range errs {
		switch {
		case err == nil:
			confirmed++
		default:
			require.ErrorIs(t, err, ErrShiftFull)
			full++
		}
	}

	assert.Equal(t, 2, confirmed)
	assert.Equal(t, volunteers-2, full)
}

func TestSignUpDuplicateRejected(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 5)
	f.addUser(1, false)

	ctx := context.Background()

	_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	_, err = f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	assert.ErrorIs(t, err, ErrAlreadySigned)
}

func TestSignUpReusesCancelledRow(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 5)
	f.addUser(1, false)

	ctx := context.Background()

	first, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, first.ID, 1, false)
	require.NoError(t, err)

	second, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.SignupStatusConfirmed, second.Status)
	assert.Nil(t, second.CancelledAt)
}

func TestSignUpRemovesOwnWaitlistEntry(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 5)
	f.addUser(1, false)

	entry := f.waitlistEntry(1, f.now)

	ctx := context.Background()

	_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	assert.NotContains(t, f.store.waitlist, entry.ID)
}

func TestSignUpBlockedVolunteerRejected(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 5)
	f.addUser(1, true)

	_, err := f.engine.SignUp(context.Background(), 1, domain.SelfSignup{UserID: 1})
	assert.ErrorIs(t, err, ErrVolunteerBlocked)
}

func TestSignUpPastShift(t *testing.T) {
	f := newFixture(t)
	f.addPastShift(1)
	f.addUser(1, false)
	f.addUser(2, false)

	ctx := context.Background()

	// 志愿者不能报名已结束的班次
	_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	assert.ErrorIs(t, err, ErrShiftInPast)

	// 管理员可以事后补录
	signup, err := f.engine.SignUp(ctx, 1, domain.AdminAssignedSignup{RequesterID: 2, TargetID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.SignupStatusConfirmed, signup.Status)
}

func TestAdminAssignBypassesCapacityForOthersOnly(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, false) // 管理员
	f.addUser(3, false)

	ctx := context.Background()

	_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	// 管理员给自己报名不豁免满员检查
	_, err = f.engine.SignUp(ctx, 1, domain.AdminAssignedSignup{RequesterID: 2, TargetID: 2})
	assert.ErrorIs(t, err, ErrShiftFull)

	// 替他人报名可以超员
	signup, err := f.engine.SignUp(ctx, 1, domain.AdminAssignedSignup{RequesterID: 2, TargetID: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.SignupStatusConfirmed, signup.Status)
}

/**********************************************
 * 候补
 **********************************************/

func TestJoinWaitlistRequiresFullShift(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 2)
	f.addUser(1, false)
	f.addUser(2, false)

	ctx := context.Background()

	_, err := f.engine.JoinWaitlist(ctx, 1, 1, nil)
	assert.ErrorIs(t, err, ErrShiftHasCapacity)

	_, err = f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)
	_, err = f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 2})
	require.NoError(t, err)

	f.addUser(3, false)
	entry, err := f.engine.JoinWaitlist(ctx, 1, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.UserID)

	_, err = f.engine.JoinWaitlist(ctx, 1, 3, nil)
	assert.ErrorIs(t, err, ErrAlreadyWaitlisted)
}

func TestJoinWaitlistPastShiftRejected(t *testing.T) {
	f := newFixture(t)
	f.addPastShift(1)
	f.addUser(1, false)

	_, err := f.engine.JoinWaitlist(context.Background(), 1, 1, nil)
	assert.ErrorIs(t, err, ErrShiftInPast)
}

func TestJoinWaitlistBlockedVolunteerRejected(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, true)

	ctx := context.Background()

	_, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	// 班次已满也轮不到被移出队伍的志愿者排队
	_, err = f.engine.JoinWaitlist(ctx, 1, 2, nil)
	assert.ErrorIs(t, err, ErrVolunteerBlocked)
}

func TestLeaveWaitlistPermissions(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, false)

	entry := f.waitlistEntry(1, f.now)

	ctx := context.Background()

	// 其他志愿者不能替人撤销候补
	_, err := f.engine.LeaveWaitlistByID(ctx, entry.ID, 2, false)
	assert.ErrorIs(t, err, ErrForbidden)

	// 管理员可以
	removed, err := f.engine.LeaveWaitlistByID(ctx, entry.ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, removed.ID)
	assert.NotContains(t, f.store.waitlist, entry.ID)
}

/**********************************************
 * 取消与晋升
 **********************************************/

func TestCancelPromotesOldestWaitlisted(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	for i := int64(1); i <= 4; i++ {
		f.addUser(i, false)
	}

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	// 按登记时间先后排队
	f.waitlistEntry(2, f.now.Add(1*time.Minute))
	f.waitlistEntry(3, f.now.Add(2*time.Minute))
	f.waitlistEntry(4, f.now.Add(3*time.Minute))

	result, err := f.engine.Cancel(ctx, signup.ID, 1, false)
	require.NoError(t, err)
	require.NotNil(t, result.Promotion)
	assert.Equal(t, int64(2), result.Promotion.Signup.UserID)
	assert.Equal(t, domain.SignupStatusConfirmed, result.Promotion.Signup.Status)

	// 晋升后名额再次占满，后面的人继续等
	assert.Len(t, f.store.waitlist, 2)

	result, err = f.engine.Cancel(ctx, result.Promotion.Signup.ID, 2, false)
	require.NoError(t, err)
	require.NotNil(t, result.Promotion)
	assert.Equal(t, int64(3), result.Promotion.Signup.UserID)
}

func TestCancelTieBrokenByEntryID(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, false)
	f.addUser(3, false)

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	queuedAt := f.now.Add(time.Minute)
	first := f.waitlistEntry(2, queuedAt)
	f.waitlistEntry(3, queuedAt)

	result, err := f.engine.Cancel(ctx, signup.ID, 1, false)
	require.NoError(t, err)
	require.NotNil(t, result.Promotion)
	assert.Equal(t, first.ID, result.Promotion.PromotedFrom.ID)
}

func TestCancelSkipsBlockedWaitlisted(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, true) // 队首被拉黑
	f.addUser(3, false)

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	blocked := f.waitlistEntry(2, f.now.Add(1*time.Minute))
	f.waitlistEntry(3, f.now.Add(2*time.Minute))

	result, err := f.engine.Cancel(ctx, signup.ID, 1, false)
	require.NoError(t, err)
	require.NotNil(t, result.Promotion)
	assert.Equal(t, int64(3), result.Promotion.Signup.UserID)

	// 被拉黑的候补不晋升但保留在队列里
	assert.Contains(t, f.store.waitlist, blocked.ID)
}

func TestCancelIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, false)

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	first, err := f.engine.Cancel(ctx, signup.ID, 1, false)
	require.NoError(t, err)
	assert.False(t, first.NoOp)

	// 名额已经释放过，重复取消不得再触发晋升
	f.waitlistEntry(2, f.now)

	second, err := f.engine.Cancel(ctx, signup.ID, 1, false)
	require.NoError(t, err)
	assert.True(t, second.NoOp)
	assert.Nil(t, second.Promotion)
}

func TestCancelBlackoutWindow(t *testing.T) {
	f := newFixture(t)
	f.addUser(1, false)

	// 明天早上开始的班次，距离现在不足 24 小时
	shift := &domain.Shift{
		ID:            1,
		Title:         "早班",
		Type:          domain.ShiftTypeMorning,
		Date:          f.now.AddDate(0, 0, 1),
		StartTime:     "09:00",
		EndTime:       "13:00",
		MaxVolunteers: 5,
	}
	f.store.shifts[1] = shift

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, signup.ID, 1, false)
	assert.ErrorIs(t, err, ErrCancelTooLate)

	// 管理员不受封锁窗口限制
	result, err := f.engine.Cancel(ctx, signup.ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SignupStatusCancelled, result.Cancelled.Status)
}

func TestCancelForbiddenForOthers(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 5)
	f.addUser(1, false)

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, signup.ID, 99, false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelNoPromotionWhenOverCapacity(t *testing.T) {
	f := newFixture(t)
	f.addShift(1, 1)
	f.addUser(1, false)
	f.addUser(2, false) // 管理员
	f.addUser(3, false)
	f.addUser(4, false)

	ctx := context.Background()

	signup, err := f.engine.SignUp(ctx, 1, domain.SelfSignup{UserID: 1})
	require.NoError(t, err)

	// 管理员超员加入一人，此时确认人数 2 > 容量 1
	_, err = f.engine.SignUp(ctx, 1, domain.AdminAssignedSignup{RequesterID: 2, TargetID: 3})
	require.NoError(t, err)

	f.waitlistEntry(4, f.now)

	// 取消一人后人数回到容量上限，没有空位，不晋升
	result, err := f.engine.Cancel(ctx, signup.ID, 1, false)
	require.NoError(t, err)
	assert.Nil(t, result.Promotion)
	assert.Len(t, f.store.waitlist, 1)
}
