package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const cacheKeyPrefix = "reco:v1"

// cacheKey builds a deterministic key from the strategy name and every
// non-zero input. Exclude lists are sorted and hashed so their order is irrelevant.
func cacheKey(strategy string, req Request) string {
	parts := make([]string, 0, 6)
	if req.CustomerID != 0 {
		parts = append(parts, "c="+strconv.FormatInt(req.CustomerID, 10))
	}
	if req.ProductID != 0 {
		parts = append(parts, "p="+strconv.FormatInt(req.ProductID, 10))
	}
	parts = append(parts, "l="+strconv.Itoa(req.Limit))
	if req.Days != 0 {
		parts = append(parts, "d="+strconv.Itoa(req.Days))
	}
	if req.CategoryID != nil {
		parts = append(parts, "cat="+strconv.FormatInt(*req.CategoryID, 10))
	}
	if len(req.Exclude) > 0 {
		parts = append(parts, "x="+excludeDigest(req.Exclude))
	}
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, strategy, strings.Join(parts, "|"))
}

func excludeDigest(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
