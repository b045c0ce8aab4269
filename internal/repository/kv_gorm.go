package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one row of the durable local store.
type KVEntry struct {
	Clave     string `gorm:"primaryKey;type:varchar(191)"`
	Valor     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }

type gormKV struct{ db *gorm.DB }

// NewGormKV returns a KV over the kv_entries table, creating it if needed.
func NewGormKV(db *gorm.DB) (KV, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, err
	}
	return &gormKV{db: db}, nil
}

func (r *gormKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e KVEntry
	err := r.db.WithContext(ctx).Where("clave = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Valor, true, nil
}

func (r *gormKV) Set(ctx context.Context, key string, value []byte) error {
	e := KVEntry{Clave: key, Valor: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clave"}},
		DoUpdates: clause.AssignmentColumns([]string{"valor", "updated_at"}),
	}).Create(&e).Error
}

func (r *gormKV) Remove(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("clave = ?", key).Delete(&KVEntry{}).Error
}
