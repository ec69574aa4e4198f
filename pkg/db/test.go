package db

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// NewTest opens an isolated in-memory sqlite database. Each call gets its
// own named database so parallel tests do not share state, while
// cache=shared keeps it visible across the connection pool.
func NewTest() (*gorm.DB, error) {
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	return gorm.Open(sqlite.Open(name), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
}
