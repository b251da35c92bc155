//go:build memkitdebug

package alloc

import "fmt"

// assertions is true in development builds (-tags memkitdebug).
const assertions = true

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
