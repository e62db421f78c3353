package util

import (
	"github.com/sirupsen/logrus"
)

// Debug is the verbosity threshold for DPrintf.
var Debug uint64 = 0

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		logrus.WithField("level", level).Debugf(format, a...)
	}
}

// SetDebug sets the DPrintf threshold and makes logrus emit debug entries
// whenever any level is enabled.
func SetDebug(level uint64) {
	Debug = level
	if level > 0 {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	} else {
		return m
	}
}

func Max(n uint64, m uint64) uint64 {
	if n > m {
		return n
	} else {
		return m
	}
}

// SumOverflows reports whether a+b wraps around 2^64.
func SumOverflows(a uint64, b uint64) bool {
	return a+b < a
}
