package matrix_test

import (
	"math/rand"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/dtile-project/dtile/dist"
	"github.com/dtile-project/dtile/matrix"
	"github.com/dtile-project/dtile/tile"
	"github.com/dtile-project/dtile/transport"
)

// runOnAllRanks calls fn(rank) concurrently for rank in [0, n) and
// collects any errors, so that collective operations (NewGroup, Bcast)
// that require every participant present at once can make progress.
func runOnAllRanks(n int, fn func(rank int) error) []error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for r := 0; r < n; r++ {
		r := r
		go func() {
			defer wg.Done()
			errs[r] = fn(r)
		}()
	}
	wg.Wait()
	return errs
}

var _ = Describe("tile_bcast with lifetime (S2, S3)", func() {
	const (
		M, N    = 16, 16
		nb      = 4
		p, q    = 2, 2
		devices = 0
	)

	var (
		world    *transport.World
		matrices []*matrix.Matrix[float64]
	)

	BeforeEach(func() {
		world = transport.NewWorld(p * q)
		matrices = make([]*matrix.Matrix[float64], p*q)
		for r := 0; r < p*q; r++ {
			m, err := matrix.Construct[float64](matrix.Config[float64]{
				M: M, N: N, NB: nb,
				Comm: world.Rank(r), P: p, Q: q, Devices: devices,
				Rand: rand.New(rand.NewSource(int64(100 + r))),
			})
			Expect(err).NotTo(HaveOccurred())
			matrices[r] = m
		}
	})

	It("reaches every rank in the broadcast set and sets the right life counters", func() {
		bc := dist.NewBlockCyclic(M, N, nb, p, q, devices)
		Expect(bc.OwnerRank(0, 0)).To(Equal(0))

		rg := matrix.Range{I1: 0, I2: 1, J1: 0, J2: 3}
		errs := runOnAllRanks(p*q, func(r int) error {
			return matrices[r].TileBcast(0, 0, []matrix.Range{rg}, matrix.Host)
		})
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}

		owner, err := matrices[0].Tile(0, 0)
		Expect(err).NotTo(HaveOccurred())

		expectedLife := make([]int32, p*q)
		for i := rg.I1; i <= rg.I2; i++ {
			for j := rg.J1; j <= rg.J2; j++ {
				expectedLife[bc.OwnerRank(i, j)]++
			}
		}

		for r := 1; r < p*q; r++ {
			got, err := matrices[r].Tile(0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Data()).To(Equal(owner.Data()))

			life, ok := matrices[r].Life(0, 0)
			Expect(ok).To(BeTrue())
			Expect(life).To(Equal(expectedLife[r]))
		}

		By("S3: ticking exactly `life` times reclaims the tile on every non-owner")
		for r := 1; r < p*q; r++ {
			life, _ := matrices[r].Life(0, 0)
			for k := int32(0); k < life; k++ {
				Expect(matrices[r].Tick(0, 0)).To(Succeed())
			}
			_, err := matrices[r].Tile(0, 0)
			Expect(err).To(HaveOccurred())
			_, ok := matrices[r].Life(0, 0)
			Expect(ok).To(BeFalse())
		}

		_, err = matrices[0].Tile(0, 0)
		Expect(err).NotTo(HaveOccurred())
	})

	It("is a no-op for ranks outside the broadcast set", func() {
		rg := matrix.Range{I1: 0, I2: 0, J1: 0, J2: 0}
		// Only rank 0 (owner of (0,0)) and rank 0 itself are in the set,
		// so this call never needs a collective and every rank returns
		// immediately without a registry entry appearing anywhere new.
		errs := runOnAllRanks(p*q, func(r int) error {
			return matrices[r].TileBcast(0, 0, []matrix.Range{rg}, matrix.Host)
		})
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
		for r := 1; r < p*q; r++ {
			_, ok := matrices[r].Life(0, 0)
			Expect(ok).To(BeFalse())
		}
	})
})

var _ = Describe("gather (S5)", func() {
	const (
		M, N = 6, 6
		nb   = 2
		p, q = 2, 2
	)

	It("leaves root holding every owner's lower-triangle tile bitwise", func() {
		world := transport.NewWorld(p * q)
		matrices := make([]*matrix.Matrix[float64], p*q)
		for r := 0; r < p*q; r++ {
			m, err := matrix.Construct[float64](matrix.Config[float64]{
				M: M, N: N, NB: nb,
				Comm: world.Rank(r), P: p, Q: q,
				Shape: matrix.LowerTriangle,
				Rand:  rand.New(rand.NewSource(int64(200 + r))),
			})
			Expect(err).NotTo(HaveOccurred())
			matrices[r] = m
		}

		bc := dist.NewBlockCyclic(M, N, nb, p, q, 0)
		originals := map[[2]int][]float64{}
		for i := 0; i < matrices[0].MT(); i++ {
			for j := 0; j <= i && j < matrices[0].NT(); j++ {
				owner := bc.OwnerRank(i, j)
				t, err := matrices[owner].Tile(i, j)
				Expect(err).NotTo(HaveOccurred())
				originals[[2]int{i, j}] = append([]float64(nil), t.Data()...)
			}
		}

		errs := runOnAllRanks(p*q, func(r int) error {
			return matrices[r].Gather()
		})
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}

		for i := 0; i < matrices[0].MT(); i++ {
			for j := 0; j <= i && j < matrices[0].NT(); j++ {
				got, err := matrices[0].Tile(i, j, tile.HostLocation)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Data()).To(Equal(originals[[2]int{i, j}]))
			}
		}
	})
})
