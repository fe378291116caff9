package linalg

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
)

var cases = []struct {
	name string
	m    *mat.Dense
}{
	{"symmetric coupled", mat.NewDense(2, 2, []float64{-1.5, 0.5, 0.5, -2.5})},
	{"symmetric stiff", mat.NewDense(2, 2, []float64{-4, 3, 3, -4})},
	{"diagonal", mat.NewDense(2, 2, []float64{0.3, 0, 0, -2})},
	{"upper triangular", mat.NewDense(2, 2, []float64{1, 2, 0, 3})},
	{"general real", mat.NewDense(2, 2, []float64{0.5, -1.2, 0.7, -2.1})},
	{"rotation", mat.NewDense(2, 2, []float64{0, 1, -1, 0})},
	{"defective", mat.NewDense(2, 2, []float64{1, 1, 0, 1})},
	{"nilpotent", mat.NewDense(2, 2, []float64{0, 1, 0, 0})},
}

func TestExpm_InverseIdentity(t *testing.T) {
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewWithT(t)

			e, err := Expm(tc.m)
			g.Expect(err).NotTo(HaveOccurred())

			var neg mat.Dense
			neg.Scale(-1, tc.m)
			einv, err := Expm(&neg)
			g.Expect(err).NotTo(HaveOccurred())

			var prod mat.Dense
			prod.Mul(e, einv)
			g.Expect(mat.EqualApprox(&prod, Identity(2), 1e-10)).To(BeTrue(),
				"exp(M) exp(-M) = %v", mat.Formatted(&prod))
		})
	}
}

func TestExpm_ZeroIsIdentity(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		e, err := Expm(mat.NewDense(n, n, nil))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !mat.Equal(e, Identity(n)) {
			t.Errorf("n=%d: exp(0) = %v, want identity", n, mat.Formatted(e))
		}
	}
}

func TestExpm_NegativeZeroIsIdentity(t *testing.T) {
	// -(k1+k12)/gamma with zero springs produces signed zeros.
	m := mat.NewDense(2, 2, []float64{math.Copysign(0, -1), 0, 0, math.Copysign(0, -1)})
	e, err := Expm(m)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(e, Identity(2)) {
		t.Errorf("exp(-0) = %v, want identity", mat.Formatted(e))
	}
}

func TestExpm_ClosedForms(t *testing.T) {
	theta := 0.7
	rot := mat.NewDense(2, 2, []float64{0, theta, -theta, 0})
	wantRot := mat.NewDense(2, 2, []float64{
		math.Cos(theta), math.Sin(theta),
		-math.Sin(theta), math.Cos(theta),
	})

	jordan := mat.NewDense(2, 2, []float64{1, 1, 0, 1})
	wantJordan := mat.NewDense(2, 2, []float64{math.E, math.E, 0, math.E})

	diag := mat.NewDense(2, 2, []float64{-1, 0, 0, 2})
	wantDiag := mat.NewDense(2, 2, []float64{math.Exp(-1), 0, 0, math.Exp(2)})

	// [[a, b], [b, a]] has eigenvectors (1, ±1).
	a, b := -3.0, 1.0
	sym := mat.NewDense(2, 2, []float64{a, b, b, a})
	c, s := math.Exp(a)*math.Cosh(b), math.Exp(a)*math.Sinh(b)
	wantSym := mat.NewDense(2, 2, []float64{c, s, s, c})

	tests := []struct {
		name string
		m    *mat.Dense
		want *mat.Dense
	}{
		{"rotation", rot, wantRot},
		{"jordan block", jordan, wantJordan},
		{"diagonal", diag, wantDiag},
		{"symmetric", sym, wantSym},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expm(tt.m)
			if err != nil {
				t.Fatal(err)
			}
			if !mat.EqualApprox(got, tt.want, 1e-12) {
				t.Errorf("exp(M) = %v, want %v", mat.Formatted(got), mat.Formatted(tt.want))
			}
		})
	}
}

func TestExpmEigen_ReportsSingular(t *testing.T) {
	tests := []struct {
		name string
		m    *mat.Dense
	}{
		{"defective", mat.NewDense(2, 2, []float64{1, 1, 0, 1})},
		{"complex eigenvalues", mat.NewDense(2, 2, []float64{0, 1, -1, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpmEigen(tt.m)
			if !errors.Is(err, dynamo.ErrSingularSystem) {
				t.Errorf("expected ErrSingularSystem, got %v", err)
			}
		})
	}
}

func TestExpm_EigenMatchesPade(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0.5, -1.2, 0.7, -2.1})

	eig, err := ExpmEigen(m)
	if err != nil {
		t.Fatal(err)
	}
	pade, err := ExpmPade(m)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(eig, pade, 1e-12) {
		t.Errorf("eigen %v != pade %v", mat.Formatted(eig), mat.Formatted(pade))
	}
}

func TestExpm_NotSquare(t *testing.T) {
	_, err := Expm(mat.NewDense(2, 3, nil))
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestExpm_Overflow(t *testing.T) {
	_, err := Expm(mat.NewDense(2, 2, []float64{1000, 0, 0, 1}))
	if !errors.Is(err, dynamo.ErrSingularSystem) {
		t.Errorf("expected ErrSingularSystem for non-finite exponential, got %v", err)
	}
}

func BenchmarkExpm(b *testing.B) {
	m := mat.NewDense(2, 2, []float64{-1.5, 0.5, 0.5, -2.5})
	for i := 0; i < b.N; i++ {
		_, _ = Expm(m)
	}
}
