package relation

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrAlreadyExists = errors.New("relation already exists")
	ErrNoRelation    = errors.New("relation does not exist")
)

// Toggle manages a two-state (absent/present) join row between a user
// and a target entity. Favorites, shopping cart items and
// subscriptions all share this shape; the key columns must identify at
// most one row, backed by a unique index on the entity.
type Toggle[M any] struct {
	db *gorm.DB
}

func NewToggle[M any](db *gorm.DB) Toggle[M] {
	return Toggle[M]{db: db}
}

// Add inserts the mark. A row already holding the same key fails the
// insert on the unique index and surfaces as ErrAlreadyExists, no
// matter how concurrent calls interleave. Requires a connection opened
// with TranslateError.
func (t Toggle[M]) Add(ctx context.Context, mark *M) error {
	if err := t.db.WithContext(ctx).Create(mark).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Remove deletes the single row matching the key.
func (t Toggle[M]) Remove(ctx context.Context, key map[string]interface{}) error {
	res := t.db.WithContext(ctx).Where(key).Delete(new(M))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRelation
	}
	return nil
}

func (t Toggle[M]) Exists(ctx context.Context, key map[string]interface{}) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(new(M)).Where(key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
