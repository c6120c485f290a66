package tax

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// fakeRepo serves taxes from memory and counts sort lookups.
type fakeRepo struct {
	taxes     map[id.ID]*Tax
	sortCalls int
}

func newFakeRepo(taxes ...*Tax) *fakeRepo {
	r := &fakeRepo{taxes: make(map[id.ID]*Tax)}
	for _, t := range taxes {
		r.taxes[t.ID] = t
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, t *Tax) error {
	r.taxes[t.ID] = t
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, t *Tax) error {
	r.taxes[t.ID] = t
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, taxID id.ID) error {
	delete(r.taxes, taxID)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, taxID id.ID) (*Tax, error) {
	return r.taxes[taxID], nil
}

func (r *fakeRepo) GetByIDs(ctx context.Context, taxIDs []id.ID) ([]*Tax, error) {
	res := make([]*Tax, 0, len(taxIDs))
	for _, taxID := range taxIDs {
		if t, ok := r.taxes[taxID]; ok {
			res = append(res, t)
		}
	}
	return res, nil
}

func (r *fakeRepo) SortIDs(ctx context.Context, taxIDs []id.ID) ([]id.ID, error) {
	r.sortCalls++
	res := append([]id.ID(nil), taxIDs...)
	sort.Slice(res, func(i, j int) bool {
		a, b := r.taxes[res[i]], r.taxes[res[j]]
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		return a.ID.String() < b.ID.String()
	})
	return res, nil
}

func percentageTax(name string, seq int, pct string) *Tax {
	t := NewTax(name, name, TypePercentage, id.New())
	t.Sequence = seq
	t.Percentage = types.MustMoney(pct)
	return t
}

func fixedTax(name string, seq int, amount string) *Tax {
	t := NewTax(name, name, TypeFixed, id.New())
	t.Sequence = seq
	t.Amount = types.MustMoney(amount)
	return t
}

func TestComputePercentage(t *testing.T) {
	vat := percentageTax("VAT", 10, "20")
	engine := NewEngine(newFakeRepo(vat))

	res, err := engine.Compute(context.Background(), []id.ID{vat.ID},
		types.MustMoney("100"), types.MustMoney("2"))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].Base.Equal(types.MustMoney("200")), "base %s", res[0].Base)
	assert.True(t, res[0].Amount.Equal(types.MustMoney("40")), "amount %s", res[0].Amount)
	assert.Equal(t, vat.ID, res[0].Tax.ID)
}

func TestComputeFixedAndOrder(t *testing.T) {
	stamp := fixedTax("STAMP", 20, "5")
	vat := percentageTax("VAT", 10, "10")
	engine := NewEngine(newFakeRepo(stamp, vat))

	res, err := engine.Compute(context.Background(), []id.ID{stamp.ID, vat.ID},
		types.MustMoney("50"), types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, res, 2)

	// Lower sequence first, regardless of input order.
	assert.Equal(t, vat.ID, res[0].Tax.ID)
	assert.True(t, res[0].Amount.Equal(types.MustMoney("5")))
	assert.Equal(t, stamp.ID, res[1].Tax.ID)
	assert.True(t, res[1].Amount.Equal(types.MustMoney("5")))
}

func TestComputeSequenceTieBreaksOnID(t *testing.T) {
	a := percentageTax("A", 10, "1")
	b := percentageTax("B", 10, "2")
	engine := NewEngine(newFakeRepo(a, b))

	res, err := engine.Compute(context.Background(), []id.ID{b.ID, a.ID},
		types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, res, 2)

	first, second := a, b
	if b.ID.String() < a.ID.String() {
		first, second = b, a
	}
	assert.Equal(t, first.ID, res[0].Tax.ID)
	assert.Equal(t, second.ID, res[1].Tax.ID)
}

func TestComputeGroupChildrenSameUnitPrice(t *testing.T) {
	parent := NewTax("GRP", "Group", TypeNone, id.New())
	parent.Sequence = 1
	child1 := percentageTax("C1", 1, "10")
	child2 := percentageTax("C2", 2, "5")
	parent.Childs = []*Tax{child1, child2}
	engine := NewEngine(newFakeRepo(parent))

	res, err := engine.Compute(context.Background(), []id.ID{parent.ID},
		types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, res, 2)

	// The group header contributes nothing; both children see the same base.
	assert.True(t, res[0].Base.Equal(types.MustMoney("100")))
	assert.True(t, res[0].Amount.Equal(types.MustMoney("10")))
	assert.True(t, res[1].Base.Equal(types.MustMoney("100")))
	assert.True(t, res[1].Amount.Equal(types.MustMoney("5")))
}

func TestComputeInverseRoundTrip(t *testing.T) {
	vat := percentageTax("VAT", 10, "20")
	engine := NewEngine(newFakeRepo(vat))
	ctx := context.Background()

	inv, err := engine.ComputeInverse(ctx, []id.ID{vat.ID},
		types.MustMoney("120"), types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, inv, 1)

	// 120 including 20% VAT decomposes into base 100 + tax 20.
	assert.True(t, inv[0].Base.Equal(types.MustMoney("100")), "base %s", inv[0].Base)
	assert.True(t, inv[0].Amount.Equal(types.MustMoney("20")), "amount %s", inv[0].Amount)

	fwd, err := engine.Compute(ctx, []id.ID{vat.ID}, inv[0].Base, types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, fwd, 1)
	assert.True(t, fwd[0].Amount.Equal(inv[0].Amount))
}

func TestComputeInverseMultipleTaxes(t *testing.T) {
	a := percentageTax("A", 1, "10")
	b := percentageTax("B", 2, "20")
	engine := NewEngine(newFakeRepo(a, b))

	price := types.MustMoney("100")
	res, err := engine.ComputeInverse(context.Background(), []id.ID{a.ID, b.ID},
		price, types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, res, 2)

	// Results come back in forward order.
	assert.Equal(t, a.ID, res[0].Tax.ID)
	assert.Equal(t, b.ID, res[1].Tax.ID)

	// Both bases equal the price minus all extracted tax.
	total := res[0].Amount.Add(res[1].Amount)
	expectedBase := price.Sub(total)
	assert.True(t, res[0].Base.Equal(expectedBase), "base %s", res[0].Base)
	assert.True(t, res[1].Base.Equal(expectedBase), "base %s", res[1].Base)
}

func TestComputeInverseDoesNotMutateChildOrder(t *testing.T) {
	parent := NewTax("GRP", "Group", TypeNone, id.New())
	child1 := percentageTax("C1", 1, "10")
	child2 := percentageTax("C2", 2, "5")
	parent.Childs = []*Tax{child1, child2}
	engine := NewEngine(newFakeRepo(parent))
	ctx := context.Background()

	_, err := engine.ComputeInverse(ctx, []id.ID{parent.ID},
		types.MustMoney("115"), types.MustMoney("1"))
	require.NoError(t, err)

	// The loaded tree keeps its order across calls.
	assert.Equal(t, child1.ID, parent.Childs[0].ID)
	assert.Equal(t, child2.ID, parent.Childs[1].ID)

	first, err := engine.Compute(ctx, []id.ID{parent.ID},
		types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	second, err := engine.Compute(ctx, []id.ID{parent.ID},
		types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Tax.ID, second[i].Tax.ID)
	}
}

func TestSortCacheInvalidation(t *testing.T) {
	vat := percentageTax("VAT", 10, "20")
	repo := newFakeRepo(vat)
	engine := NewEngine(repo)
	ctx := context.Background()

	_, err := engine.Compute(ctx, []id.ID{vat.ID}, types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	_, err = engine.Compute(ctx, []id.ID{vat.ID}, types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.sortCalls, "second compute must hit the cache")

	engine.Invalidate()
	_, err = engine.Compute(ctx, []id.ID{vat.ID}, types.MustMoney("100"), types.MustMoney("1"))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.sortCalls, "invalidation must force a fresh sort")
}

func TestComputeZeroQuantity(t *testing.T) {
	vat := percentageTax("VAT", 10, "20")
	engine := NewEngine(newFakeRepo(vat))

	res, err := engine.Compute(context.Background(), []id.ID{vat.ID},
		types.MustMoney("100"), types.Zero())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].Base.IsZero())
	assert.True(t, res[0].Amount.IsZero())
}
