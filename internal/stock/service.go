package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultMaxConcurrency = 8

// RowResult reports the outcome of one upsert in a batch.
type RowResult struct {
	VariantID uuid.UUID `json:"variantId"`
	Quantity  int       `json:"quantity"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`

	index int
}

type rowMetrics interface {
	AddStockRows(saved, failed int)
}

// Service is the branch stock editor.
type Service interface {
	List(ctx context.Context, branchID uuid.UUID, query string) ([]Row, error)
	Save(ctx context.Context, branchID uuid.UUID, edits []Edit) ([]RowResult, error)
}

// Options bounds how many upserts run at once.
type Options struct {
	MaxConcurrency int
}

type service struct {
	repo    Repository
	metrics rowMetrics
	logg    *logger.Logger
	workers int
}

func NewService(repo Repository, metrics rowMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	workers := opts.MaxConcurrency
	if workers <= 0 {
		workers = defaultMaxConcurrency
	}
	return &service{repo: repo, metrics: metrics, logg: logg, workers: workers}, nil
}

func (s *service) List(ctx context.Context, branchID uuid.UUID, query string) ([]Row, error) {
	if err := s.requireBranch(ctx, branchID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, branchID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock")
	}
	return rows, nil
}

// Save issues one upsert per edit concurrently. Rows that succeed stay committed when
// others fail; the returned error carries the first failure in request order.
func (s *service) Save(ctx context.Context, branchID uuid.UUID, edits []Edit) ([]RowResult, error) {
	if len(edits) == 0 {
		return []RowResult{}, nil
	}
	for _, e := range edits {
		if e.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").WithDetails(map[string]any{
				"variantId": e.VariantID,
			})
		}
	}
	if err := s.requireBranch(ctx, branchID); err != nil {
		return nil, err
	}

	p := pool.NewWithResults[RowResult]().WithMaxGoroutines(s.workers)
	for i, e := range edits {
		p.Go(func() RowResult {
			res := RowResult{VariantID: e.VariantID, Quantity: e.Quantity, index: i}
			if err := s.repo.Upsert(ctx, branchID, e.VariantID, e.Quantity); err != nil {
				res.Error = err.Error()
				return res
			}
			res.OK = true
			return res
		})
	}
	results := p.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

	saved, failed := 0, 0
	var first *RowResult
	for i := range results {
		if results[i].OK {
			saved++
			continue
		}
		failed++
		if first == nil {
			first = &results[i]
		}
	}
	if s.metrics != nil {
		s.metrics.AddStockRows(saved, failed)
	}

	ctx = s.logg.WithBranchID(ctx, branchID.String())
	ctx = s.logg.WithFields(ctx, map[string]any{"saved": saved, "failed": failed})
	if first != nil {
		s.logg.Warn(ctx, "stock.save_partial")
		return results, pkgerrors.New(pkgerrors.CodeWriteFailed, first.Error).WithDetails(map[string]any{
			"results": results,
		})
	}
	s.logg.Info(ctx, "stock saved")
	return results, nil
}

func (s *service) requireBranch(ctx context.Context, branchID uuid.UUID) error {
	ok, err := s.repo.BranchExists(ctx, branchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return nil
}
