package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

type CrimeRepository interface {
	GetAll(ctx context.Context) ([]*models.CrimeDefinition, error)
	GetByID(ctx context.Context, id int64) (*models.CrimeDefinition, error)
}

type crimeRepository struct {
	db *bun.DB
}

func NewCrimeRepository(db *bun.DB) CrimeRepository {
	return &crimeRepository{db: db}
}

func (r *crimeRepository) GetAll(ctx context.Context) ([]*models.CrimeDefinition, error) {
	var crimes []*models.CrimeDefinition
	err := r.db.NewSelect().
		Model(&crimes).
		Order("required_level ASC", "difficulty ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get crimes: %w", err)
	}
	return crimes, nil
}

func (r *crimeRepository) GetByID(ctx context.Context, id int64) (*models.CrimeDefinition, error) {
	crime := new(models.CrimeDefinition)
	err := r.db.NewSelect().
		Model(crime).
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return crime, nil
}
