package expr

// Factors splits n into the factors of its top-level product, so that n = 0
// exactly when one of them is zero. Negation, division by a constant and
// positive integer powers are peeled off; nonzero constant factors are
// dropped. A node that is not a product is its own single factor.
func Factors(n Node) []Node {
	switch n := n.(type) {
	case *Neg:
		return Factors(n.X)
	case *Bin:
		switch n.Op {
		case '*':
			return append(Factors(n.L), Factors(n.R)...)
		case '/':
			if IsConstant(n.R) {
				if d := n.R.Eval(nil); d != 0 && isFinite(d) {
					return Factors(n.L)
				}
			}
		case '^':
			if IsConstant(n.R) {
				e := n.R.Eval(nil)
				if e > 0 && e == float64(int(e)) {
					return Factors(n.L)
				}
			}
		}
	}
	if IsConstant(n) {
		if v := n.Eval(nil); v != 0 && isFinite(v) {
			return nil
		}
	}
	return []Node{n}
}
