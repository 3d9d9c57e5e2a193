package infrastructure

import (
	"context"
	"database/sql/driver"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"yuxian/internal/service/order/domain"
)

// Open 建立 MySQL 连接。SQL 日志交给 zerolog，GORM 自带的日志置为静默。
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	return db, nil
}

// AutoMigrate 建立订单侧的全部表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&RefundFeedbackModel{},
	)
}

// MySQL 错误码：锁等待超时 / 死锁，见 dev.mysql.com server error reference。
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// classifyStorageErr 把可重试的存储层故障标记为 ErrStorageTransient。
// 业务规则错误（库存不足、券已使用等）原样透传，绝不被重分类。
func classifyStorageErr(err error) error {
	if err == nil {
		return nil
	}

	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return errors.Wrap(domain.ErrStorageTransient, myErr.Error())
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return errors.Wrap(domain.ErrStorageTransient, err.Error())
	}
	return err
}
