package ration

import "math"

// percentTolerance is the allowed drift of a schedule's percent sum from 100.
const percentTolerance = 0.01

// Round2 rounds v to two decimals, the precision of percents and plan quantities.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
