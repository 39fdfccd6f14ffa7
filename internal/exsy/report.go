package exsy

import (
	"fmt"
	"io"
	"strings"
)

// Report writes the three-line summary of a fit, uncertainties to three
// decimals.
func Report(w io.Writer, res *FitResult) error {
	_, err := io.WriteString(w, res.String())
	return err
}

func (r *FitResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "k_12 = %.3f ± %.3f s⁻¹\n", r.Rates.K12, r.StdErr.K12)
	fmt.Fprintf(&b, "k_21 = %.3f ± %.3f s⁻¹\n", r.Rates.K21, r.StdErr.K21)
	fmt.Fprintf(&b, "K_ex = %.3f ± %.3f\n", r.Kex, r.KexError)
	return b.String()
}
