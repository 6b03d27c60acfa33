package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrIntegrityViolation 存储层拒绝写入（唯一约束、外键等），不做自动重试
var ErrIntegrityViolation = errors.New("数据完整性约束冲突")

// IsIntegrityViolation 判断错误是否来自存储层约束
func IsIntegrityViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIntegrityViolation) ||
		errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	// PostgreSQL: SQLSTATE 23xxx 为完整性约束类
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// Classify 将约束类错误包装为 ErrIntegrityViolation，其他错误原样返回
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrIntegrityViolation) {
		return err
	}
	if IsIntegrityViolation(err) {
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}
	return err
}
