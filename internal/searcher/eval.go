package searcher

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/query"
)

// evaluate maps e onto bitmap algebra. Term bitmaps come straight from the
// index cache and are never modified; every operator allocates its result.
func evaluate(e query.Expr, si *index.SearchIndex) (*roaring.Bitmap, error) {
	switch n := e.(type) {
	case *query.TermExpr:
		return si.TermBitset(n.Term)
	case *query.NotExpr:
		operand, err := evaluate(n.Operand, si)
		if err != nil {
			return nil, err
		}
		return roaring.Flip(operand, 0, uint64(si.DocumentCount())), nil
	case *query.BinaryExpr:
		left, err := evaluate(n.Left, si)
		if err != nil {
			return nil, err
		}
		right, err := evaluate(n.Right, si)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case query.Or:
			return roaring.Or(left, right), nil
		case query.Xor:
			return roaring.Xor(left, right), nil
		default:
			return roaring.And(left, right), nil
		}
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}
