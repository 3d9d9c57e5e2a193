package infrastructure

import (
	"context"
	"database/sql/driver"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"yuxian/internal/service/order/domain"
)

func TestClassifyStorageErr(t *testing.T) {
	assert.NoError(t, classifyStorageErr(nil))

	// 锁等待超时 / 死锁 -> 可重试
	for _, code := range []uint16{mysqlErrLockWaitTimeout, mysqlErrDeadlock} {
		err := classifyStorageErr(&mysqldrv.MySQLError{Number: code, Message: "conflict"})
		assert.ErrorIs(t, err, domain.ErrStorageTransient, "code %d", code)
	}

	assert.ErrorIs(t, classifyStorageErr(context.DeadlineExceeded), domain.ErrStorageTransient)
	assert.ErrorIs(t, classifyStorageErr(driver.ErrBadConn), domain.ErrStorageTransient)

	// 包装后的驱动错误同样能被识别
	wrapped := errors.Wrap(&mysqldrv.MySQLError{Number: mysqlErrDeadlock, Message: "deadlock found"}, "save order")
	assert.ErrorIs(t, classifyStorageErr(wrapped), domain.ErrStorageTransient)

	// 业务错误绝不被重分类
	assert.ErrorIs(t, classifyStorageErr(domain.ErrInsufficientStock), domain.ErrInsufficientStock)
	assert.NotErrorIs(t, classifyStorageErr(domain.ErrInsufficientStock), domain.ErrStorageTransient)

	// 其他数据库错误（如唯一索引冲突）原样透传
	dup := &mysqldrv.MySQLError{Number: 1062, Message: "duplicate entry"}
	assert.NotErrorIs(t, classifyStorageErr(dup), domain.ErrStorageTransient)
}
