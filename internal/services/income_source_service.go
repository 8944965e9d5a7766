package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type IncomeSourceService struct {
	store ports.IncomeSourceStore
}

func NewIncomeSourceService(store ports.IncomeSourceStore) *IncomeSourceService {
	return &IncomeSourceService{store: store}
}

func (s *IncomeSourceService) Create(ctx context.Context, scope core.Scope, in core.IncomeSourceInput) (core.IncomeSource, error) {
	if err := in.Validate(); err != nil {
		return core.IncomeSource{}, err
	}
	in = in.WithDefaults()

	id, err := s.store.CreateIncomeSource(ctx, scope, in)
	if err != nil {
		return core.IncomeSource{}, storageErr("create income source", err)
	}
	return s.get(ctx, scope, id)
}

func (s *IncomeSourceService) List(ctx context.Context, scope core.Scope, activeOnly bool) ([]core.IncomeSource, error) {
	sources, err := s.store.ListIncomeSources(ctx, scope, activeOnly)
	if err != nil {
		return nil, storageErr("list income sources", err)
	}
	return sources, nil
}

func (s *IncomeSourceService) get(ctx context.Context, scope core.Scope, id int64) (core.IncomeSource, error) {
	src, err := s.store.GetIncomeSource(ctx, scope, id)
	if err != nil {
		return core.IncomeSource{}, lookupErr("Income source", "get income source", err)
	}
	return src, nil
}

func (s *IncomeSourceService) Update(ctx context.Context, scope core.Scope, id int64, p core.IncomeSourcePatch) (core.IncomeSource, error) {
	if p.IsEmpty() {
		return core.IncomeSource{}, core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return core.IncomeSource{}, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}

	n, err := s.store.UpdateIncomeSource(ctx, scope, id, p)
	if err != nil {
		return core.IncomeSource{}, storageErr("update income source", err)
	}
	if err := affected("Income source", n); err != nil {
		return core.IncomeSource{}, err
	}
	return s.get(ctx, scope, id)
}

func (s *IncomeSourceService) Delete(ctx context.Context, scope core.Scope, id int64) error {
	n, err := s.store.DeleteIncomeSource(ctx, scope, id)
	if err != nil {
		return storageErr("delete income source", err)
	}
	return affected("Income source", n)
}
