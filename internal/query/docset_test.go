package query

import (
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// linearDocSet has no skip structure and relies on SkipByAdvancing.
type linearDocSet struct {
	docs []index.DocID
	pos  int
}

func newLinearDocSet(docs ...index.DocID) *linearDocSet {
	return &linearDocSet{docs: docs, pos: -1}
}

func (l *linearDocSet) Advance() bool {
	if l.pos < len(l.docs) {
		l.pos++
	}
	return l.pos < len(l.docs)
}

func (l *linearDocSet) SkipNext(target index.DocID) SkipResult {
	return SkipByAdvancing(l, target)
}

func (l *linearDocSet) Doc() index.DocID {
	if l.pos < 0 || l.pos >= len(l.docs) {
		return index.TerminatedDoc
	}
	return l.docs[l.pos]
}

func (l *linearDocSet) SizeHint() uint32 { return uint32(len(l.docs)) }

type docSetCase struct {
	name     string
	build    func() DocSet
	expected []index.DocID
}

func conformanceCases(rng *rand.Rand, maxDoc int) []docSetCase {
	a := randomDocs(rng, maxDoc, 0.4)
	b := randomDocs(rng, maxDoc, 0.5)
	c := randomDocs(rng, maxDoc, 0.1)
	d := randomDocs(rng, maxDoc, 0.3)
	sa, sb, sc, sd := toSet(a), toSet(b), toSet(c), toSet(d)

	inter := map[index.DocID]bool{}
	union := map[index.DocID]bool{}
	minus := map[index.DocID]bool{}
	nested := map[index.DocID]bool{}
	for doc := index.DocID(0); doc < index.DocID(maxDoc); doc++ {
		if sa[doc] && sb[doc] {
			inter[doc] = true
		}
		if sa[doc] || sb[doc] || sc[doc] {
			union[doc] = true
		}
		if sa[doc] && !sd[doc] {
			minus[doc] = true
		}
		if ((sa[doc] && sb[doc]) || sc[doc]) && !sd[doc] {
			nested[doc] = true
		}
	}
	all := make([]index.DocID, maxDoc)
	for i := range all {
		all[i] = index.DocID(i)
	}

	return []docSetCase{
		{"vec", func() DocSet { return NewVecDocSet(a...) }, a},
		{"linear", func() DocSet { return newLinearDocSet(a...) }, a},
		{"bitset", func() DocSet { return NewBitSetDocSet(roaring.BitmapOf(b...)) }, b},
		{"all", func() DocSet { return NewAllScorer(uint32(maxDoc)) }, all},
		{"empty", func() DocSet { return EmptyScorer{} }, nil},
		{"intersection", func() DocSet { return NewIntersection([]Scorer{vec(a...), vec(b...)}) }, fromSet(inter)},
		{"union", func() DocSet { return NewUnion([]Scorer{vec(a...), vec(b...), vec(c...)}) }, fromSet(union)},
		{"exclude", func() DocSet { return NewExclude(vec(a...), vec(d...)) }, fromSet(minus)},
		{"required_optional", func() DocSet { return NewRequiredOptional(vec(a...), vec(c...)) }, a},
		{"weighted", func() DocSet { return NewWeightedScorer(vec(c...), 2) }, c},
		{"nested", func() DocSet {
			return NewExclude(
				NewUnion([]Scorer{NewIntersection([]Scorer{vec(a...), vec(b...)}), vec(c...)}),
				NewUnion([]Scorer{vec(d...)}),
			)
		}, fromSet(nested)},
	}
}

func TestDocSet_AdvanceOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, tc := range conformanceCases(rng, 200) {
		t.Run(tc.name, func(t *testing.T) {
			ds := tc.build()
			want := tc.expected
			if want == nil {
				want = []index.DocID{}
			}
			assert.Equal(t, want, collect(ds))
			assert.False(t, ds.Advance())
			assert.Equal(t, SkipEnd, ds.SkipNext(0))
		})
	}
}

func TestDocSet_MixedCallsMatchModel(t *testing.T) {
	const maxDoc = 300
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		cases := conformanceCases(rng, maxDoc)
		ops := randomOps(rng, 80, maxDoc)
		for _, tc := range cases {
			ds := tc.build()
			m := newModel(tc.expected)
			last := int64(-1)
			for i, o := range ops {
				if o.skip {
					want, wantDoc := m.skipNext(o.target)
					got := ds.SkipNext(o.target)
					require.Equal(t, want, got, "seed %d case %s op %d skip(%d)", seed, tc.name, i, o.target)
					if got == SkipEnd {
						continue
					}
					require.Equal(t, wantDoc, ds.Doc(), "seed %d case %s op %d", seed, tc.name, i)
					require.GreaterOrEqual(t, ds.Doc(), o.target)
				} else {
					wantOK, wantDoc := m.advance()
					gotOK := ds.Advance()
					require.Equal(t, wantOK, gotOK, "seed %d case %s op %d advance", seed, tc.name, i)
					if !gotOK {
						continue
					}
					require.Equal(t, wantDoc, ds.Doc(), "seed %d case %s op %d", seed, tc.name, i)
				}
				require.Greater(t, int64(ds.Doc()), last, "seed %d case %s op %d went backwards", seed, tc.name, i)
				last = int64(ds.Doc())
			}
		}
	}
}

func TestSkipNext_AdvancesBeforeComparing(t *testing.T) {
	ds := NewVecDocSet(2, 5, 9)
	require.True(t, ds.Advance())
	assert.Equal(t, index.DocID(2), ds.Doc())

	assert.Equal(t, SkipOverStep, ds.SkipNext(2))
	assert.Equal(t, index.DocID(5), ds.Doc())
	assert.Equal(t, SkipOverStep, ds.SkipNext(3))
	assert.Equal(t, index.DocID(9), ds.Doc())
	assert.Equal(t, SkipEnd, ds.SkipNext(10))
	assert.False(t, ds.Advance())

	fresh := NewVecDocSet(2, 5, 9)
	assert.Equal(t, SkipReached, fresh.SkipNext(5))
	assert.Equal(t, index.DocID(5), fresh.Doc())
}

func TestCount(t *testing.T) {
	deletes := index.NewDeleteBitSet(1, 4, 8)
	assert.Equal(t, uint32(3), Count(NewVecDocSet(0, 1, 4, 6, 7), deletes))
	assert.Equal(t, uint32(5), Count(NewVecDocSet(0, 1, 4, 6, 7), nil))
	assert.Equal(t, uint32(5), CountIncludingDeleted(NewVecDocSet(0, 1, 4, 6, 7)))

	partial := NewVecDocSet(0, 1, 4, 6, 7)
	require.True(t, partial.Advance())
	assert.Equal(t, uint32(4), CountIncludingDeleted(partial), "counts only the remaining docs")
	assert.Equal(t, uint32(0), CountIncludingDeleted(EmptyScorer{}))
}

func TestSkipResult_String(t *testing.T) {
	assert.Equal(t, "reached", SkipReached.String())
	assert.Equal(t, "overstep", SkipOverStep.String())
	assert.Equal(t, "end", SkipEnd.String())
}

func TestUnion_ScoreSumsChildrenOnDoc(t *testing.T) {
	u := NewUnion([]Scorer{
		NewConstScorer(NewVecDocSet(1, 3), 1),
		NewConstScorer(NewVecDocSet(3, 4), 2),
		NewConstScorer(NewVecDocSet(3), 4),
	})
	assert.Equal(t, map[index.DocID]Score{1: 1, 3: 7, 4: 2}, collectScores(u))
	assert.Equal(t, uint32(2), NewUnion([]Scorer{vec(1, 2), vec(5)}).SizeHint())
}

func TestIntersection_LeadsWithSmallest(t *testing.T) {
	big := vec(1, 2, 3, 4, 5, 6, 7, 8)
	small := vec(4, 8)
	x := NewIntersection([]Scorer{big, small})
	assert.Equal(t, uint32(2), x.SizeHint())
	assert.Equal(t, map[index.DocID]Score{4: 2, 8: 2}, collectScores(x))

	single := vec(1)
	assert.Same(t, single, NewIntersection([]Scorer{single}))
	assert.Same(t, single, NewUnion([]Scorer{single}))
	assert.Equal(t, EmptyScorer{}, NewIntersection(nil))
}

func TestRequiredOptional_Score(t *testing.T) {
	s := NewRequiredOptional(
		NewConstScorer(NewVecDocSet(1, 2, 3), 1),
		NewConstScorer(NewVecDocSet(2, 5), 0.5),
	)
	assert.Equal(t, map[index.DocID]Score{1: 1, 2: 1.5, 3: 1}, collectScores(s))
}

func BenchmarkIntersection(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := randomDocs(rng, 1_000_000, 0.2)
	y := randomDocs(rng, 1_000_000, 0.01)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CountIncludingDeleted(NewIntersection([]Scorer{vec(x...), vec(y...)}))
	}
}

func BenchmarkUnion(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := randomDocs(rng, 200_000, 0.2)
	y := randomDocs(rng, 200_000, 0.05)
	z := randomDocs(rng, 200_000, 0.1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CountIncludingDeleted(NewUnion([]Scorer{vec(x...), vec(y...), vec(z...)}))
	}
}
