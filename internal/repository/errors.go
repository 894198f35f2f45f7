package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("record was modified concurrently")
	ErrPromoExhausted   = errors.New("promo usage limit reached")
	ErrQuantityExceeded = errors.New("item quantity limit exceeded")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// translate maps driver errors onto the package's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}
