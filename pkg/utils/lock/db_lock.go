package lock

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrLockHeld 表示锁已被其他调用者持有
var ErrLockHeld = errors.New("lock already held")

// Record 数据库锁记录
// 与 Redis 锁不同，这把锁落在业务库里，和业务数据同生共死，
// 用于串行化对外部余额抓取这类昂贵操作的访问。
type Record struct {
	Name     string     `gorm:"type:varchar(64);primaryKey" json:"name"`
	Locked   bool       `gorm:"not null;default:false" json:"locked"`
	Holder   string     `gorm:"type:varchar(128)" json:"holder"`
	LockedAt *time.Time `json:"locked_at,omitempty"`
}

func (Record) TableName() string {
	return "distributed_locks"
}

// DBLock 基于单行事务的数据库分布式锁
type DBLock struct {
	db     *gorm.DB
	name   string
	holder string
}

func NewDBLock(db *gorm.DB, name string, holder string) *DBLock {
	return &DBLock{db: db, name: name, holder: holder}
}

// Ensure 幂等地创建锁记录 (locked=false)
func (l *DBLock) Ensure(ctx context.Context) error {
	rec := Record{Name: l.name, Locked: false}
	return l.db.WithContext(ctx).
		Where("name = ?", l.name).
		FirstOrCreate(&rec).Error
}

// Acquire 事务性读-改-写: 只有观察到 locked=false 的那一个调用者能成功。
// 条件更新保证了即使并发进入事务，也至多一个 RowsAffected=1。
func (l *DBLock) Acquire(ctx context.Context) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&Record{}).
			Where("name = ? AND locked = ?", l.name, false).
			Updates(map[string]interface{}{
				"locked":    true,
				"holder":    l.holder,
				"locked_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLockHeld
		}
		return nil
	})
}

// Release 无条件释放。失败只记录，不重试 (由调用方决定)。
func (l *DBLock) Release(ctx context.Context) error {
	return l.db.WithContext(ctx).Model(&Record{}).
		Where("name = ?", l.name).
		Updates(map[string]interface{}{"locked": false, "holder": ""}).Error
}
