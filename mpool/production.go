//go:build !debug

package mpool

// chunk contents are left as-is outside debug builds.
func initblock(block uintptr, size int64) {
}
