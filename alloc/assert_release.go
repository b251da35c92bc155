//go:build !memkitdebug

package alloc

const assertions = false

func assertf(bool, string, ...any) {}
