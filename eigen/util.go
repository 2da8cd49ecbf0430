// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"math"

	"github.com/ritz-ml/ritz/tensor"
)

// maxAbs returns the largest absolute entry of t.
func maxAbs(t *tensor.Tensor) float64 {
	worst := 0.0
	for _, v := range t.Data() {
		worst = math.Max(worst, math.Abs(v))
	}
	return worst
}

// maxAbsDiff returns the largest absolute element-wise difference between
// two same-shaped tensors. Used for collective (whole batch) stop decisions.
func maxAbsDiff(a, b *tensor.Tensor) float64 {
	ad, bd := a.Data(), b.Data()
	worst := 0.0
	for i := range ad {
		worst = math.Max(worst, math.Abs(ad[i]-bd[i]))
	}
	return worst
}
