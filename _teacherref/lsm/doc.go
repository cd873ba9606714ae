// Package lsm implement log-structure-merge for lsm enable
// datastructures. Following structures - LLRB, MVCC, Bubt support
// LSM. This package provides APIs for both Get() operations and
// Range/Full-Table-Scan operations.
package lsm
