package tax

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// Engine computes taxes for a unit price and quantity.
//
// The traversal order (sequence, id) is looked up once per id set and cached;
// any catalog change invalidates the whole cache.
type Engine struct {
	repo Repository

	mu        sync.RWMutex
	sortCache map[string][]id.ID
}

// NewEngine creates a tax computation engine.
func NewEngine(repo Repository) *Engine {
	return &Engine{
		repo:      repo,
		sortCache: make(map[string][]id.ID),
	}
}

// Invalidate drops the sort cache. Called on every tax create/update/delete.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.sortCache = make(map[string][]id.ID)
	e.mu.Unlock()
}

// Compute computes the taxes for unitPrice and quantity, walking each tax
// tree in (sequence, id) order. Children compute against the same unit price
// as their parent; base and amount are scaled by quantity at the end.
func (e *Engine) Compute(ctx context.Context, taxIDs []id.ID, unitPrice, quantity types.Money) ([]ComputedTax, error) {
	taxes, err := e.load(ctx, taxIDs)
	if err != nil {
		return nil, err
	}
	res := unitCompute(taxes, unitPrice)
	for i := range res {
		res[i].Base = res[i].Base.Mul(quantity)
		res[i].Amount = res[i].Amount.Mul(quantity)
	}
	return res, nil
}

// ComputeInverse decomposes a tax-included unit price: it walks the trees in
// reverse order, sizes each percentage amount as p - p/(1+rate), subtracts
// the accumulated amounts of each level from that level's bases, and returns
// the lines in forward order scaled by quantity.
//
// Compute(ComputeInverse(p).Base) reproduces the amounts for single-level
// percentage taxes.
func (e *Engine) ComputeInverse(ctx context.Context, taxIDs []id.ID, unitPrice, quantity types.Money) ([]ComputedTax, error) {
	taxes, err := e.load(ctx, taxIDs)
	if err != nil {
		return nil, err
	}
	reversed := reverseTaxes(taxes)
	res := unitComputeInv(reversed, unitPrice)
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	for i := range res {
		res[i].Base = res[i].Base.Mul(quantity)
		res[i].Amount = res[i].Amount.Mul(quantity)
	}
	return res, nil
}

// load returns the taxes of the id set in traversal order.
func (e *Engine) load(ctx context.Context, taxIDs []id.ID) ([]*Tax, error) {
	sorted, err := e.sortTaxes(ctx, taxIDs)
	if err != nil {
		return nil, err
	}
	taxes, err := e.repo.GetByIDs(ctx, sorted)
	if err != nil {
		return nil, err
	}
	byID := make(map[id.ID]*Tax, len(taxes))
	for _, t := range taxes {
		byID[t.ID] = t
	}
	res := make([]*Tax, 0, len(sorted))
	for _, taxID := range sorted {
		if t, ok := byID[taxID]; ok {
			res = append(res, t)
		}
	}
	return res, nil
}

// sortTaxes resolves the (sequence, id) order for an id set, cached.
func (e *Engine) sortTaxes(ctx context.Context, taxIDs []id.ID) ([]id.ID, error) {
	key := cacheKey(taxIDs)

	e.mu.RLock()
	cached, ok := e.sortCache[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	sorted, err := e.repo.SortIDs(ctx, taxIDs)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sortCache[key] = sorted
	e.mu.Unlock()
	return sorted, nil
}

func cacheKey(taxIDs []id.ID) string {
	keys := make([]string, len(taxIDs))
	for i, taxID := range taxIDs {
		keys[i] = taxID.String()
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func processTax(t *Tax, unitPrice types.Money) ComputedTax {
	switch t.Type {
	case TypePercentage:
		return ComputedTax{
			Base:   unitPrice,
			Amount: unitPrice.Mul(t.Percentage).Div(types.NewMoney(100)),
			Tax:    t,
		}
	default: // fixed
		return ComputedTax{
			Base:   unitPrice,
			Amount: t.Amount,
			Tax:    t,
		}
	}
}

func unitCompute(taxes []*Tax, unitPrice types.Money) []ComputedTax {
	var res []ComputedTax
	for _, t := range taxes {
		if t.Type != TypeNone {
			res = append(res, processTax(t, unitPrice))
		}
		if len(t.Childs) > 0 {
			res = append(res, unitCompute(t.Childs, unitPrice)...)
		}
	}
	return res
}

func processTaxInv(t *Tax, unitPrice types.Money) ComputedTax {
	// The base is fixed up once the whole level is computed.
	switch t.Type {
	case TypePercentage:
		one := types.NewMoney(1)
		rate := t.Percentage.Div(types.NewMoney(100))
		amount := unitPrice.Sub(unitPrice.Div(one.Add(rate)))
		return ComputedTax{Base: unitPrice, Amount: amount, Tax: t}
	default: // fixed
		return ComputedTax{Base: unitPrice, Amount: t.Amount, Tax: t}
	}
}

func unitComputeInv(taxes []*Tax, unitPrice types.Money) []ComputedTax {
	var res []ComputedTax
	total := types.Zero()
	for _, t := range taxes {
		if t.Type != TypeNone {
			computed := processTaxInv(t, unitPrice)
			res = append(res, computed)
			total = total.Add(computed.Amount)
		}
		if len(t.Childs) > 0 {
			children := unitComputeInv(reverseSlice(t.Childs), unitPrice)
			for _, child := range children {
				total = total.Add(child.Amount)
			}
			res = append(res, children...)
		}
	}
	for i := range res {
		res[i].Base = res[i].Base.Sub(total)
	}
	return res
}

// reverseTaxes returns the top-level list in reverse traversal order.
func reverseTaxes(taxes []*Tax) []*Tax {
	return reverseSlice(taxes)
}

// reverseSlice copies before reversing so the loaded tree is never mutated.
func reverseSlice(taxes []*Tax) []*Tax {
	res := make([]*Tax, len(taxes))
	for i, t := range taxes {
		res[len(taxes)-1-i] = t
	}
	return res
}
