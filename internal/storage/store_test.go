package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/integrators"
	"github.com/san-kum/dimersim/internal/noise"
	"github.com/san-kum/dimersim/internal/physics"
	"github.com/san-kum/dimersim/internal/sim"
)

func testParams(n int) physics.Params {
	return physics.Params{
		D1: 0.4, D2: 2.0,
		K1: 1e-9, K2: 1e-9, K12: 2e-6,
		KB: 1.38e-11, Gamma: 1e-8,
		L12: 2, X10: -1, X20: 1,
		Dt: 1e-4, N: n,
	}
}

func runResult(n int, seed int64) *sim.Result {
	res, err := sim.New(integrators.NewExact()).Run(context.Background(), testParams(n), noise.NewSource(seed))
	Expect(err).NotTo(HaveOccurred())
	return res
}

var _ = Describe("DatWriter", func() {
	It("writes the t;x;dx;x2;dx2 layout with NaN final increments", func() {
		X := mat.NewDense(2, 3, []float64{
			-1, -0.5, 0.25,
			1, 1.5, 1,
		})
		var buf bytes.Buffer
		Expect(WriteDat(&buf, sim.NewTrajectory(X, 0.5))).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(Equal([]string{
			"t;x;dx;x2;dx2",
			"0;-1;0.5;1;0.5",
			"0.5;-0.5;0.75;1.5;-0.5",
			"1;0.25;NaN;1;NaN",
		}))
	})

	It("round trips a simulated trajectory bit for bit", func() {
		res := runResult(501, 3)
		var buf bytes.Buffer
		Expect(WriteDat(&buf, res.Trajectory)).To(Succeed())

		tr, err := ReadDat(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(tr.X, res.Trajectory.X)).To(BeTrue())
		Expect(tr.Dt).To(BeNumerically("~", 1e-4, 1e-15))
	})

	It("streams rows while the simulator runs", func() {
		var buf bytes.Buffer
		w, err := NewDatWriter(&buf)
		Expect(err).NotTo(HaveOccurred())

		s := sim.New(integrators.NewExact())
		s.AddObserver(w)
		res, err := s.Run(context.Background(), testParams(101), noise.NewSource(8))
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())
		Expect(w.Rows()).To(Equal(101))

		tr, err := ReadDat(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(tr.X, res.Trajectory.X)).To(BeTrue())
	})

	It("rejects states with the wrong number of particles", func() {
		w, err := NewDatWriter(&bytes.Buffer{})
		Expect(err).NotTo(HaveOccurred())
		err = w.OnStep(0, 0, dynamo.State{1, 2, 3})
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	It("rejects malformed files", func() {
		_, err := ReadDat(strings.NewReader("a;b;c;d;e\n1;2;3;4;5\n"))
		Expect(err).To(HaveOccurred())

		_, err = ReadDat(strings.NewReader("t;x;dx;x2;dx2\n"))
		Expect(err).To(HaveOccurred())

		_, err = ReadDat(strings.NewReader("t;x;dx;x2;dx2\n0;zero;1;2;3\n"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Store", func() {
	var (
		dir string
		st  *Store
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		st = New(dir)
		Expect(st.Init()).To(Succeed())
	})

	It("lists nothing before the first run", func() {
		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	It("saves, indexes and reloads a run", func() {
		res := runResult(201, 42)
		res.Metrics["diffusivity_1"] = 0.41
		res.Metrics["broken"] = math.NaN()

		runID, err := st.Save(42, testParams(201), res)
		Expect(err).NotTo(HaveOccurred())
		Expect(runID).NotTo(BeEmpty())

		Expect(filepath.Join(dir, runID, "metadata.json")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, runID, "trajectory.dat")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "runs.db")).To(BeAnExistingFile())

		meta, err := st.Load(runID)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Seed).To(Equal(int64(42)))
		Expect(meta.Integrator).To(Equal("exact"))
		Expect(meta.Steps).To(Equal(200))
		Expect(meta.Params).To(Equal(testParams(201)))
		Expect(meta.Metrics).To(HaveKeyWithValue("diffusivity_1", 0.41))
		Expect(meta.Metrics).NotTo(HaveKey("broken"))
		Expect(meta.Mean).To(HaveLen(2))

		tr, err := st.LoadTrajectory(runID)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(tr.X, res.Trajectory.X)).To(BeTrue())

		runs, err := st.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].ID).To(Equal(runID))
	})

	It("falls back to metadata.json when the index is missing", func() {
		runID, err := st.Save(1, testParams(11), runResult(11, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Remove(filepath.Join(dir, "runs.db"))).To(Succeed())

		meta, err := st.Load(runID)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.ID).To(Equal(runID))
	})

	It("reports unknown runs", func() {
		_, err := st.Load("nope")
		Expect(errors.Is(err, ErrRunNotFound)).To(BeTrue())

		_, err = st.LoadTrajectory("nope")
		Expect(errors.Is(err, ErrRunNotFound)).To(BeTrue())
	})

	It("removes aborted runs", func() {
		run, err := st.Create(5, "exact", testParams(11))
		Expect(err).NotTo(HaveOccurred())
		Expect(run.Abort()).To(Succeed())
		Expect(filepath.Join(dir, run.Meta.ID)).NotTo(BeADirectory())
	})
})

var _ = Describe("ExportJSON", func() {
	It("encodes the trailing increments as null", func() {
		res := runResult(5, 2)
		meta := &RunMetadata{ID: "dimer_1", Seed: 2, Integrator: "exact", Params: testParams(5)}

		var buf bytes.Buffer
		Expect(ExportJSON(&buf, meta, res.Trajectory)).To(Succeed())

		var decoded map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue("id", "dimer_1"))

		dx := decoded["dx"].([]interface{})
		Expect(dx).To(HaveLen(5))
		Expect(dx[4]).To(BeNil())
		Expect(dx[0]).NotTo(BeNil())

		x := decoded["x"].([]interface{})
		Expect(x[0]).To(Equal(-1.0))
	})
})

var _ = Describe("Run IDs", func() {
	It("are unique for back-to-back runs", func() {
		st := New(GinkgoT().TempDir())
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			run, err := st.Create(int64(i), "exact", testParams(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).NotTo(HaveKey(run.Meta.ID))
			seen[run.Meta.ID] = true
			Expect(run.Abort()).To(Succeed())
		}
	})
})
